package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

// FleetClient HTTP клиент сервиса флота
type FleetClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewFleetClient создает клиент. При пустом baseURL проверка грузовиков отключена
func NewFleetClient(baseURL, apiKey string) *FleetClient {
	return &FleetClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.New(log.Writer(), "[FleetClient] ", log.LstdFlags),
	}
}

// ValidateAndReserve проверяет, что грузовик существует, свободен и вмещает груз, и резервирует его
func (c *FleetClient) ValidateAndReserve(ctx context.Context, truckID uint, weightKg, volumeM3 float64) error {
	if c.baseURL == "" {
		c.logger.Printf("[WARN] Сервис флота не настроен, грузовик ID=%d принят без проверки", truckID)
		return nil
	}

	url := fmt.Sprintf("%s/api/v1/trucks/%d/reserve", c.baseURL, truckID)

	reqBody := map[string]interface{}{
		"weight_kg": weightKg,
		"volume_m3": volumeM3,
	}

	reqBodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBodyJSON))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return pkgerrors.NewNotFoundError("Грузовик", truckID)
	case http.StatusBadRequest, http.StatusConflict, http.StatusPreconditionFailed, http.StatusUnprocessableEntity:
		return pkgerrors.NewPreconditionFailedError(fmt.Sprintf("грузовик ID=%d недоступен или не вмещает груз (%s)", truckID, readReason(resp)))
	default:
		return fmt.Errorf("неуспешный ответ от сервиса флота: %s", resp.Status)
	}
}

// readReason достает текст ошибки из ответа вида {"error": "..."}
func readReason(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return resp.Status
	}
	return body.Error
}
