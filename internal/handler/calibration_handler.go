package handler

import (
	"net/http"

	"parking-detector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CalibrationHandler обрабатывает HTTP запросы калибровки камер
type CalibrationHandler struct {
	calibrations CalibrationManager
	logger       *logrus.Logger
}

// NewCalibrationHandler создает новый экземпляр CalibrationHandler
func NewCalibrationHandler(calibrations CalibrationManager, logger *logrus.Logger) *CalibrationHandler {
	return &CalibrationHandler{
		calibrations: calibrations,
		logger:       logger,
	}
}

// RegisterRoutes регистрирует маршруты калибровки (только для администратора)
func (h *CalibrationHandler) RegisterRoutes(router *gin.Engine, adminAuth gin.HandlerFunc) {
	admin := router.Group("/api/admin/calibration", adminAuth)
	{
		admin.POST("", h.CreateCalibration)
		admin.GET("", h.ListCalibrations)
		admin.GET("/:camera_id", h.GetCalibration)
		admin.PUT("/:camera_id", h.UpdateCalibration)
		admin.DELETE("/:camera_id", h.DeleteCalibration)
	}
}

// CreateCalibration создает или заменяет калибровку камеры
func (h *CalibrationHandler) CreateCalibration(c *gin.Context) {
	var req models.CalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnf("Ошибка разбора запроса калибровки: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса калибровки"})
		return
	}

	resp, created, err := h.calibrations.Create(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// ListCalibrations возвращает список калибровок
func (h *CalibrationHandler) ListCalibrations(c *gin.Context) {
	skip, limit := pagination(c, 50, 100)

	items, total, err := h.calibrations.List(skip, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"calibrations": items,
		"total":        total,
		"skip":         skip,
		"limit":        limit,
	})
}

// GetCalibration возвращает калибровку камеры
func (h *CalibrationHandler) GetCalibration(c *gin.Context) {
	resp, err := h.calibrations.Get(c.Param("camera_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateCalibration частично обновляет калибровку камеры
func (h *CalibrationHandler) UpdateCalibration(c *gin.Context) {
	var upd models.CalibrationUpdateRequest
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.logger.Warnf("Ошибка разбора запроса обновления калибровки: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса калибровки"})
		return
	}

	resp, err := h.calibrations.Update(c.Param("camera_id"), upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteCalibration удаляет калибровку камеры
func (h *CalibrationHandler) DeleteCalibration(c *gin.Context) {
	cameraID := c.Param("camera_id")
	if err := h.calibrations.Delete(cameraID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Калибровка удалена", "camera_id": cameraID})
}
