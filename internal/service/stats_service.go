package service

import (
	"context"
	"fmt"
	"time"

	"parking-detector-go/internal/repository"
	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Version версия сервиса в ответах health
const Version = "1.0.0"

// StatsService сервис статистики и проверки здоровья
type StatsService struct {
	sessions repository.SessionRepository
	detector ObjectDetector
	dbCheck  func() error
	logger   *logrus.Logger
}

// NewStatsService создает новый сервис статистики
func NewStatsService(sessions repository.SessionRepository, detector ObjectDetector, dbCheck func() error, logger *logrus.Logger) *StatsService {
	return &StatsService{
		sessions: sessions,
		detector: detector,
		dbCheck:  dbCheck,
		logger:   logger,
	}
}

// Stats получает статистику по сессиям
func (s *StatsService) Stats() (*models.StatsResponse, error) {
	stats, err := s.sessions.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &models.StatsResponse{
		TotalSessions:     stats.Total,
		ActiveSessions:    stats.Active,
		CompletedSessions: stats.Completed,
		TotalDetections:   stats.TotalDetections,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// CheckHealth проверяет базу данных и сервис детекции
func (s *StatsService) CheckHealth(ctx context.Context) *models.HealthResponse {
	unhealthy := &models.HealthResponse{Status: "unhealthy", Version: Version}

	if s.dbCheck != nil {
		if err := s.dbCheck(); err != nil {
			s.logger.Errorf("База данных недоступна: %v", err)
			return unhealthy
		}
	}

	health, err := s.detector.CheckHealth(ctx)
	if err != nil {
		s.logger.Errorf("Сервис детекции недоступен: %v", err)
		return unhealthy
	}
	if health.Status != "" && health.Status != "healthy" {
		s.logger.Warnf("Сервис детекции сообщает статус %s", health.Status)
		return unhealthy
	}

	return &models.HealthResponse{
		Status:      "healthy",
		ModelLoaded: health.ModelLoaded,
		Version:     Version,
	}
}
