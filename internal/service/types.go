package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/pkg/models"

	"gorm.io/datatypes"
)

var (
	// ErrInvalidSessionID идентификатор сессии содержит недопустимые символы
	ErrInvalidSessionID = errors.New("invalid session id")
	// ErrEmptyImage загружен пустой файл
	ErrEmptyImage = errors.New("empty image")
	// ErrNoBestFrame у сессии нет сохраненного изображения лучшего кадра
	ErrNoBestFrame = errors.New("best frame image not found")
)

// ObjectDetector внешний детектор объектов на кадре
type ObjectDetector interface {
	Detect(ctx context.Context, filename string, image []byte) ([]models.BoundingBox, error)
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// CalibrationLoader источник калибровок для анализа кадров
type CalibrationLoader interface {
	Load(cameraID string) (*calibration.Calibration, error)
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidSessionID проверяет, что идентификатор можно использовать в путях и ключах
func ValidSessionID(sessionID string) bool {
	return sessionIDPattern.MatchString(sessionID)
}

// toJSON сериализует значение для JSON колонки
func toJSON(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return datatypes.JSON(data), nil
}

// fromJSON разбирает JSON колонку; пустая колонка оставляет v без изменений
func fromJSON(data datatypes.JSON, v interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}

// rowKeys переводит ключи рядов в строки для хранения и ответов API
func rowKeys(perRow map[int]int) map[string]int {
	result := make(map[string]int, len(perRow))
	for rowIndex, count := range perRow {
		result[strconv.Itoa(rowIndex)] = count
	}
	return result
}

// summarize краткая сводка анализа
func summarize(analysis *models.ParkingAnalysis) *models.AnalysisSummary {
	if analysis == nil {
		return nil
	}
	return &models.AnalysisSummary{
		TotalMotorcycles:     analysis.TotalMotorcycles,
		TotalEmptySpaces:     analysis.TotalEmptySpaces,
		EmptySpacesPerRow:    rowKeys(analysis.EmptySpacesPerRow),
		ParkingOccupancyRate: analysis.ParkingOccupancyRate,
	}
}
