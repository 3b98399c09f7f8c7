package usecase

import (
	"context"
	"log"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

// CostUseCase расчет стоимости перевозки по заявке. Только чтение
type CostUseCase struct {
	store   repo.Store
	tariffs TariffProvider
	logger  *log.Logger
}

func NewCostUseCase(store repo.Store, tariffs TariffProvider) *CostUseCase {
	return &CostUseCase{
		store:   store,
		tariffs: tariffs,
		logger:  log.New(log.Writer(), "[CostUseCase] ", log.LstdFlags),
	}
}

// Breakdown считает стоимость по текущему состоянию участков маршрута заявки.
// Заявка без маршрута дает нулевую стоимость перевозки с флагом нехватки данных
func (u *CostUseCase) Breakdown(ctx context.Context, identity entity.Identity, requestID uint) (*entity.CostBreakdown, error) {
	request, err := u.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, wrapNotFound(err, resourceRequest, requestID)
	}

	client, err := u.store.Clients().GetByID(ctx, request.ClientID)
	if err != nil {
		return nil, wrapNotFound(err, resourceClient, request.ClientID)
	}
	if !identity.CanActFor(client.Email) {
		return nil, pkgerrors.NewForbiddenError("заявка принадлежит другому клиенту")
	}

	container, err := u.store.Containers().GetByID(ctx, request.ContainerID)
	if err != nil {
		return nil, wrapNotFound(err, resourceContainer, request.ContainerID)
	}

	var segments []entity.Segment
	if request.RouteID != nil {
		segments, err = u.store.Segments().ListByRoute(ctx, *request.RouteID)
		if err != nil {
			return nil, err
		}
	}

	tariff, err := u.tariffs.CurrentTariff(ctx)
	if err != nil {
		pkgerrors.LogErrorWithDetails(err, "получение тарифа", map[string]interface{}{
			"request_id": request.ID,
			"segments":   len(segments),
		})
		return nil, pkgerrors.NewInternalServerError(err)
	}

	breakdown := CalculateCost(request.ID, segments, *container, tariff)
	if breakdown.InsufficientData {
		u.logger.Printf("[WARN] Заявка ID=%d: недостаточно данных для расчета стоимости перевозки", request.ID)
	}
	return &breakdown, nil
}
