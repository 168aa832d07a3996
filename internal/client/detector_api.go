package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrDetectorUnavailable внешний детектор не ответил или вернул ошибку
var ErrDetectorUnavailable = errors.New("detector api unavailable")

// DetectorAPIClient клиент внешнего сервиса детекции мотоциклов
type DetectorAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewDetectorAPIClient создает новый клиент для сервиса детекции
func NewDetectorAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *DetectorAPIClient {
	return &DetectorAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Detect отправляет изображение кадра в детектор и возвращает найденные рамки
func (c *DetectorAPIClient) Detect(ctx context.Context, filename string, image []byte) ([]models.BoundingBox, error) {
	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для изображения: %w", err)
	}
	if _, err := fileWriter.Write(image); err != nil {
		return nil, fmt.Errorf("ошибка записи изображения: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/detect", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("Отправка POST запроса на %s (%d байт)", url, len(image))
	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var apiResponse models.DetectorAPIResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}
	if apiResponse.Status != "" && apiResponse.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrDetectorUnavailable, apiResponse.Message)
	}
	if apiResponse.Detections == nil {
		apiResponse.Detections = []models.BoundingBox{}
	}

	c.logger.Debugf("Детектор вернул %d рамок", len(apiResponse.Detections))
	return apiResponse.Detections, nil
}

// CheckHealth проверяет состояние сервиса детекции
func (c *DetectorAPIClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья сервиса детекции")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	return &healthResponse, nil
}

func (c *DetectorAPIClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: статус %d, тело: %s", ErrDetectorUnavailable, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
