package usecase

import (
	"context"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

type ClientUseCase struct {
	store repo.Store
}

func NewClientUseCase(store repo.Store) *ClientUseCase {
	return &ClientUseCase{store: store}
}

// FindOrCreate возвращает клиента по email, создавая его при первом обращении
func (u *ClientUseCase) FindOrCreate(ctx context.Context, identity entity.Identity, input entity.ClientInput) (*entity.Client, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.NewValidationError("email", "email обязателен")
	}
	if !identity.CanActFor(email) {
		return nil, pkgerrors.NewForbiddenError("клиент может регистрировать только себя")
	}

	var client *entity.Client
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		client, err = findOrCreateClient(ctx, tx, input, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (u *ClientUseCase) Get(ctx context.Context, identity entity.Identity, id uint) (*entity.Client, error) {
	client, err := u.store.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, resourceClient, id)
	}
	if !identity.CanActFor(client.Email) {
		return nil, pkgerrors.NewForbiddenError("нет доступа к данным другого клиента")
	}
	return client, nil
}

func (u *ClientUseCase) List(ctx context.Context) ([]entity.Client, error) {
	return u.store.Clients().List(ctx)
}
