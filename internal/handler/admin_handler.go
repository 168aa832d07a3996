package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler статистика и проверка здоровья сервиса
type AdminHandler struct {
	stats  StatsReader
	logger *logrus.Logger
}

// NewAdminHandler создает новый экземпляр AdminHandler
func NewAdminHandler(stats StatsReader, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		stats:  stats,
		logger: logger,
	}
}

// RegisterRoutes регистрирует маршруты статистики и health
func (h *AdminHandler) RegisterRoutes(router *gin.Engine, adminAuth gin.HandlerFunc) {
	router.GET("/health", h.CheckHealth)
	router.GET("/api/v1/health", h.CheckHealth)
	router.GET("/api/admin/stats", adminAuth, h.GetStats)
}

// GetStats возвращает статистику сессий
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.Stats()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (h *AdminHandler) CheckHealth(c *gin.Context) {
	health := h.stats.CheckHealth(c.Request.Context())

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, health)
}
