package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/internal/client"
	"parking-detector-go/internal/repository"
	"parking-detector-go/internal/service"
	"parking-detector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminKeyHeader заголовок с ключом администратора
const AdminKeyHeader = "X-API-Key"

// CalibrationManager операции над калибровками камер
type CalibrationManager interface {
	Create(req models.CalibrationRequest) (*models.CalibrationResponse, bool, error)
	Get(cameraID string) (*models.CalibrationResponse, error)
	Update(cameraID string, upd models.CalibrationUpdateRequest) (*models.CalibrationResponse, error)
	Delete(cameraID string) error
	List(skip, limit int) ([]models.CalibrationResponse, int64, error)
}

// FrameUploader прием кадров и завершение сессий
type FrameUploader interface {
	UploadFrame(ctx context.Context, sessionID, cameraID, filename string, image []byte) (*models.UploadFrameResponse, error)
	CompleteSession(sessionID string) (*models.SessionResult, error)
	GenerateSessionID() string
}

// ResultReader чтение результатов сессий
type ResultReader interface {
	GetResult(sessionID string) (*models.SessionResult, error)
	BestFrameImagePath(sessionID string) (string, error)
	Latest(skip, limit int) (*models.LatestResultsResponse, error)
	Live() (*models.SessionResult, error)
}

// StatsReader статистика и состояние сервиса
type StatsReader interface {
	Stats() (*models.StatsResponse, error)
	CheckHealth(ctx context.Context) *models.HealthResponse
}

// AdminAuth пропускает только запросы с верным ключом администратора.
// Пустой ключ в конфигурации закрывает административные маршруты полностью.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(AdminKeyHeader)
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Неверный или отсутствующий ключ администратора"})
			return
		}
		c.Next()
	}
}

// respondError переводит ошибку сервиса в HTTP ответ
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *calibration.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "rule": verr.Rule, "field": verr.Field})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNoBestFrame):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidSessionID), errors.Is(err, service.ErrEmptyImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, client.ErrDetectorUnavailable):
		logger.Errorf("Сервис детекции недоступен: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Сервис детекции недоступен"})
	default:
		logger.Errorf("Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
	}
}

// pagination читает skip/limit из запроса
func pagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
