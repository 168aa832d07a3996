package repository

import (
	"errors"
	"fmt"
	"time"

	"parking-detector-go/internal/model"

	"gorm.io/gorm"
)

// SessionStats агрегированная статистика по сессиям
type SessionStats struct {
	Total           int64
	Active          int64
	Completed       int64
	TotalDetections int64
}

// SessionRepository интерфейс для работы с сессиями детекции
type SessionRepository interface {
	GetByID(sessionID string) (*model.DetectionSession, error)
	// SaveFrame сохраняет сессию и новый кадр, оставляя keepFrames последних кадров
	SaveFrame(session *model.DetectionSession, frame *model.Frame, keepFrames int) error
	Complete(sessionID string) (*model.DetectionSession, error)
	ListCompleted(skip, limit int) ([]*model.DetectionSession, int64, error)
	LatestActive() (*model.DetectionSession, error)
	Stats() (*SessionStats, error)
}

// sessionRepository реализация SessionRepository
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository создает новый instance SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{
		db: db,
	}
}

func orderedFrames(db *gorm.DB) *gorm.DB {
	return db.Order("frames.id ASC")
}

// GetByID получает сессию вместе с последними кадрами
func (r *sessionRepository) GetByID(sessionID string) (*model.DetectionSession, error) {
	var session model.DetectionSession
	err := r.db.Preload("Frames", orderedFrames).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// SaveFrame сохраняет сессию и кадр в одной транзакции
func (r *sessionRepository) SaveFrame(session *model.DetectionSession, frame *model.Frame, keepFrames int) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала сохраняем сессию
	var err error
	if session.CreatedAt.IsZero() {
		err = tx.Omit("Frames").Create(session).Error
	} else {
		err = tx.Omit("Frames").Save(session).Error
	}
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save session: %w", err)
	}

	// Затем добавляем кадр
	frame.ID = 0 // Обнуляем ID для auto-increment
	frame.SessionID = session.SessionID
	if err := tx.Create(frame).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create frame: %w", err)
	}

	// Удаляем старые кадры сверх лимита
	if keepFrames > 0 {
		newest := tx.Model(&model.Frame{}).
			Select("id").
			Where("session_id = ?", session.SessionID).
			Order("id DESC").
			Limit(keepFrames)
		err := tx.Where("session_id = ? AND id NOT IN (?)", session.SessionID, newest).
			Delete(&model.Frame{}).Error
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to trim frames: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Complete помечает сессию завершенной
func (r *sessionRepository) Complete(sessionID string) (*model.DetectionSession, error) {
	now := time.Now()
	result := r.db.Model(&model.DetectionSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       model.SessionStatusCompleted,
			"completed_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to complete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	return r.GetByID(sessionID)
}

// ListCompleted получает завершенные сессии, новые первыми
func (r *sessionRepository) ListCompleted(skip, limit int) ([]*model.DetectionSession, int64, error) {
	var sessions []*model.DetectionSession
	var total int64

	query := r.db.Model(&model.DetectionSession{}).Where("status = ?", model.SessionStatusCompleted)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	err := r.db.Where("status = ?", model.SessionStatusCompleted).
		Offset(skip).
		Limit(limit).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, total, nil
}

// LatestActive получает самую свежую активную сессию
func (r *sessionRepository) LatestActive() (*model.DetectionSession, error) {
	var session model.DetectionSession
	err := r.db.Preload("Frames", orderedFrames).
		Where("status = ?", model.SessionStatusActive).
		Order("updated_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

// Stats подсчитывает сессии по статусам и сумму максимальных детекций
func (r *sessionRepository) Stats() (*SessionStats, error) {
	stats := &SessionStats{}

	if err := r.db.Model(&model.DetectionSession{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	err := r.db.Model(&model.DetectionSession{}).
		Where("status = ?", model.SessionStatusActive).
		Count(&stats.Active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}
	err = r.db.Model(&model.DetectionSession{}).
		Where("status = ?", model.SessionStatusCompleted).
		Count(&stats.Completed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	err = r.db.Model(&model.DetectionSession{}).
		Select("COALESCE(SUM(max_detection_count), 0)").
		Scan(&stats.TotalDetections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum detections: %w", err)
	}

	return stats, nil
}
