package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxUploadSize предел размера загружаемого кадра
const maxUploadSize = 32 << 20

// FrameHandler обрабатывает загрузку кадров
type FrameHandler struct {
	frames FrameUploader
	logger *logrus.Logger
}

// NewFrameHandler создает новый экземпляр FrameHandler
func NewFrameHandler(frames FrameUploader, logger *logrus.Logger) *FrameHandler {
	return &FrameHandler{
		frames: frames,
		logger: logger,
	}
}

// RegisterRoutes регистрирует маршруты загрузки кадров (только для администратора)
func (h *FrameHandler) RegisterRoutes(router *gin.Engine, adminAuth gin.HandlerFunc) {
	frames := router.Group("/api/frames", adminAuth)
	{
		frames.POST("/upload", h.UploadFrame)
		frames.POST("/complete/:session_id", h.CompleteSession)
	}
}

// UploadFrame принимает кадр, запускает детекцию и анализ парковки
func (h *FrameHandler) UploadFrame(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = h.frames.GenerateSessionID()
	}
	cameraID := c.Query("camera_id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.logger.Warnf("Ошибка получения файла кадра: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл кадра обязателен (поле file)"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения файла кадра: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения файла кадра"})
		return
	}

	resp, err := h.frames.UploadFrame(c.Request.Context(), sessionID, cameraID, header.Filename, image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteSession завершает сессию детекции
func (h *FrameHandler) CompleteSession(c *gin.Context) {
	result, err := h.frames.CompleteSession(c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
