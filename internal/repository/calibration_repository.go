package repository

import (
	"errors"
	"fmt"

	"parking-detector-go/internal/model"

	"gorm.io/gorm"
)

// CalibrationRepository интерфейс для работы с калибровками камер
type CalibrationRepository interface {
	// Upsert создает или заменяет калибровку; created - была ли запись новой
	Upsert(cal *model.Calibration) (created bool, err error)
	GetByCameraID(cameraID string) (*model.Calibration, error)
	List(skip, limit int) ([]*model.Calibration, int64, error)
	Delete(cameraID string) error
}

// calibrationRepository реализация CalibrationRepository
type calibrationRepository struct {
	db *gorm.DB
}

// NewCalibrationRepository создает новый instance CalibrationRepository
func NewCalibrationRepository(db *gorm.DB) CalibrationRepository {
	return &calibrationRepository{
		db: db,
	}
}

// Upsert сохраняет калибровку, сохраняя исходную дату создания
func (r *calibrationRepository) Upsert(cal *model.Calibration) (bool, error) {
	tx := r.db.Begin()
	if tx.Error != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var existing model.Calibration
	err := tx.Where("camera_id = ?", cal.CameraID).First(&existing).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		tx.Rollback()
		return false, fmt.Errorf("failed to get calibration: %w", err)
	}

	if created {
		err = tx.Create(cal).Error
	} else {
		cal.CreatedAt = existing.CreatedAt
		err = tx.Save(cal).Error
	}
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to save calibration: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// GetByCameraID получает калибровку камеры
func (r *calibrationRepository) GetByCameraID(cameraID string) (*model.Calibration, error) {
	var cal model.Calibration
	err := r.db.Where("camera_id = ?", cameraID).First(&cal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("calibration for camera %s: %w", cameraID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get calibration: %w", err)
	}
	return &cal, nil
}

// List получает список калибровок с пагинацией
func (r *calibrationRepository) List(skip, limit int) ([]*model.Calibration, int64, error) {
	var calibrations []*model.Calibration
	var total int64

	if err := r.db.Model(&model.Calibration{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count calibrations: %w", err)
	}

	err := r.db.Offset(skip).
		Limit(limit).
		Order("camera_id ASC").
		Find(&calibrations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list calibrations: %w", err)
	}

	return calibrations, total, nil
}

// Delete удаляет калибровку камеры
func (r *calibrationRepository) Delete(cameraID string) error {
	result := r.db.Where("camera_id = ?", cameraID).Delete(&model.Calibration{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete calibration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("calibration for camera %s: %w", cameraID, ErrNotFound)
	}
	return nil
}
