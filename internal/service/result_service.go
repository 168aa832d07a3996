package service

import (
	"fmt"
	"os"

	"parking-detector-go/internal/model"
	"parking-detector-go/internal/repository"
	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// ResultService сервис чтения результатов сессий
type ResultService struct {
	sessions repository.SessionRepository
	logger   *logrus.Logger
}

// NewResultService создает новый сервис результатов
func NewResultService(sessions repository.SessionRepository, logger *logrus.Logger) *ResultService {
	return &ResultService{
		sessions: sessions,
		logger:   logger,
	}
}

// GetResult получает полный результат сессии
func (s *ResultService) GetResult(sessionID string) (*models.SessionResult, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionToResult(session)
}

// BestFrameImagePath путь к изображению лучшего кадра сессии
func (s *ResultService) BestFrameImagePath(sessionID string) (string, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return "", err
	}
	if session.BestFrameImagePath == "" {
		return "", ErrNoBestFrame
	}
	if _, err := os.Stat(session.BestFrameImagePath); err != nil {
		s.logger.Warnf("Файл лучшего кадра сессии %s недоступен: %v", sessionID, err)
		return "", ErrNoBestFrame
	}
	return session.BestFrameImagePath, nil
}

// Latest получает завершенные сессии, новые первыми
func (s *ResultService) Latest(skip, limit int) (*models.LatestResultsResponse, error) {
	sessions, _, err := s.sessions.ListCompleted(skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]models.SessionSummary, len(sessions))
	for i, session := range sessions {
		summaries[i] = models.SessionSummary{
			SessionID:          session.SessionID,
			CameraID:           session.CameraID,
			MaxDetectionCount:  session.MaxDetectionCount,
			Status:             session.Status,
			HasParkingAnalysis: session.HasAnalysis(),
			CreatedAt:          session.CreatedAt,
			UpdatedAt:          session.UpdatedAt,
		}
	}

	return &models.LatestResultsResponse{
		Total:    len(summaries),
		Sessions: summaries,
	}, nil
}

// Live получает результат последней активной сессии
func (s *ResultService) Live() (*models.SessionResult, error) {
	session, err := s.sessions.LatestActive()
	if err != nil {
		return nil, err
	}
	return sessionToResult(session)
}

// sessionToResult преобразует модель базы данных в ответ API
func sessionToResult(session *model.DetectionSession) (*models.SessionResult, error) {
	result := &models.SessionResult{
		SessionID:            session.SessionID,
		CameraID:             session.CameraID,
		Status:               session.Status,
		MaxDetectionCount:    session.MaxDetectionCount,
		TotalFrames:          session.TotalFrames,
		TotalMotorcycles:     session.TotalMotorcycles,
		TotalEmptySpaces:     session.TotalEmptySpaces,
		ParkingOccupancyRate: session.ParkingOccupancyRate,
		CreatedAt:            session.CreatedAt,
		UpdatedAt:            session.UpdatedAt,
	}

	if len(session.BestFrame) > 0 {
		var best models.FrameDetection
		if err := fromJSON(session.BestFrame, &best); err != nil {
			return nil, fmt.Errorf("session %s best frame: %w", session.SessionID, err)
		}
		if best.FrameID != "" {
			result.BestFrame = &best
		}
	}
	if err := fromJSON(session.EmptySpacesPerRow, &result.EmptySpacesPerRow); err != nil {
		return nil, fmt.Errorf("session %s per-row counts: %w", session.SessionID, err)
	}
	if err := fromJSON(session.EmptySpaces, &result.EmptySpaces); err != nil {
		return nil, fmt.Errorf("session %s empty spaces: %w", session.SessionID, err)
	}
	if err := fromJSON(session.Detections, &result.Detections); err != nil {
		return nil, fmt.Errorf("session %s detections: %w", session.SessionID, err)
	}

	return result, nil
}
