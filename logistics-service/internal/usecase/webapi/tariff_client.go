package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// TariffClient получает действующий тариф из сервиса тарифов.
// Если сервис недоступен, используется тариф из конфигурации
type TariffClient struct {
	baseURL    string
	fallback   entity.Tariff
	httpClient *http.Client
	logger     *log.Logger
}

func NewTariffClient(baseURL string, fallback entity.Tariff) *TariffClient {
	return &TariffClient{
		baseURL:  baseURL,
		fallback: fallback,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.New(log.Writer(), "[TariffClient] ", log.LstdFlags),
	}
}

type tariffResponse struct {
	CostPerKm       *float64 `json:"cost_per_km"`
	CostPerTon      *float64 `json:"cost_per_ton"`
	CostPerM3       *float64 `json:"cost_per_m3"`
	CostPerDwellDay *float64 `json:"cost_per_dwell_day"`
}

func (c *TariffClient) CurrentTariff(ctx context.Context) (entity.Tariff, error) {
	if c.baseURL == "" {
		return c.fallback, nil
	}

	tariff, err := c.fetch(ctx)
	if err != nil {
		c.logger.Printf("[WARN] Используется тариф из конфигурации: %v", err)
		return c.fallback, nil
	}
	return tariff, nil
}

func (c *TariffClient) fetch(ctx context.Context) (entity.Tariff, error) {
	url := fmt.Sprintf("%s/api/v1/tariffs/current", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entity.Tariff{}, fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Tariff{}, fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.Tariff{}, fmt.Errorf("неуспешный ответ от сервиса тарифов: %s", resp.Status)
	}

	var body tariffResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return entity.Tariff{}, fmt.Errorf("ошибка при декодировании ответа: %w", err)
	}

	// ставки, которых нет в ответе, берутся из конфигурации
	tariff := c.fallback
	if body.CostPerKm != nil {
		tariff.CostPerKm = *body.CostPerKm
	}
	if body.CostPerTon != nil {
		tariff.CostPerTon = *body.CostPerTon
	}
	if body.CostPerM3 != nil {
		tariff.CostPerM3 = *body.CostPerM3
	}
	if body.CostPerDwellDay != nil {
		tariff.CostPerDwellDay = *body.CostPerDwellDay
	}
	return tariff, nil
}
