package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
)

// GeoClient клиент сервиса расстояний в формате distance matrix
type GeoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGeoClient(baseURL, apiKey string) *GeoClient {
	return &GeoClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // метры
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"` // секунды
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// GetDistance возвращает расстояние в километрах и время в пути в часах
func (c *GeoClient) GetDistance(ctx context.Context, origin, destination string) (usecase.DistanceResult, error) {
	query := url.Values{}
	query.Set("origins", origin)
	query.Set("destinations", destination)
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/maps/api/distancematrix/json?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return usecase.DistanceResult{}, fmt.Errorf("ошибка при создании запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return usecase.DistanceResult{}, fmt.Errorf("ошибка при выполнении запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return usecase.DistanceResult{}, fmt.Errorf("неуспешный ответ от сервиса геолокации: %s", resp.Status)
	}

	var body distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return usecase.DistanceResult{}, fmt.Errorf("ошибка при декодировании ответа: %w", err)
	}

	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return usecase.DistanceResult{}, fmt.Errorf("пустой ответ сервиса геолокации для %s -> %s", origin, destination)
	}
	element := body.Rows[0].Elements[0]
	if element.Status != "OK" {
		return usecase.DistanceResult{}, fmt.Errorf("сервис геолокации вернул статус %s для %s -> %s", element.Status, origin, destination)
	}

	return usecase.DistanceResult{
		DistanceKm:    element.Distance.Value / 1000,
		DurationHours: element.Duration.Value / 3600,
	}, nil
}
