package handler

import (
	"errors"
	"net/http"

	"parking-detector-go/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ResultHandler обрабатывает публичные запросы результатов
type ResultHandler struct {
	results ResultReader
	logger  *logrus.Logger
}

// NewResultHandler создает новый экземпляр ResultHandler
func NewResultHandler(results ResultReader, logger *logrus.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		logger:  logger,
	}
}

// RegisterRoutes регистрирует маршруты результатов
func (h *ResultHandler) RegisterRoutes(router *gin.Engine) {
	results := router.Group("/api/results")
	{
		results.GET("/latest", h.GetLatest)
		results.GET("/live", h.GetLive)
		results.GET("/:session_id", h.GetResult)
		results.GET("/:session_id/image", h.GetBestFrameImage)
	}
}

// GetResult возвращает результат сессии
func (h *ResultHandler) GetResult(c *gin.Context) {
	result, err := h.results.GetResult(c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBestFrameImage отдает изображение лучшего кадра сессии
func (h *ResultHandler) GetBestFrameImage(c *gin.Context) {
	path, err := h.results.BestFrameImagePath(c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.File(path)
}

// GetLatest возвращает последние завершенные сессии
func (h *ResultHandler) GetLatest(c *gin.Context) {
	skip, limit := pagination(c, 10, 100)

	latest, err := h.results.Latest(skip, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

// GetLive возвращает текущую активную сессию
func (h *ResultHandler) GetLive(c *gin.Context) {
	live, err := h.results.Live()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"message": "No active session"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, live)
}
