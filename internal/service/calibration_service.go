package service

import (
	"fmt"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/internal/model"
	"parking-detector-go/internal/repository"
	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// CalibrationDefaults значения, подставляемые при отсутствии полей в запросе
type CalibrationDefaults struct {
	MinSpaceWidth    float64
	SpaceCoefficient float64
}

// CalibrationService сервис для управления калибровками камер
type CalibrationService struct {
	repo      repository.CalibrationRepository
	validator *calibration.Validator
	defaults  CalibrationDefaults
	logger    *logrus.Logger
}

// NewCalibrationService создает новый сервис калибровок
func NewCalibrationService(repo repository.CalibrationRepository, validator *calibration.Validator, defaults CalibrationDefaults, logger *logrus.Logger) *CalibrationService {
	return &CalibrationService{
		repo:      repo,
		validator: validator,
		defaults:  defaults,
		logger:    logger,
	}
}

// Create создает или заменяет калибровку камеры; created - новая ли это калибровка
func (s *CalibrationService) Create(req models.CalibrationRequest) (*models.CalibrationResponse, bool, error) {
	if req.MinSpaceWidth == 0 {
		req.MinSpaceWidth = s.defaults.MinSpaceWidth
	}
	if req.SpaceCoefficient == 0 {
		req.SpaceCoefficient = s.defaults.SpaceCoefficient
	}

	cal, err := s.validator.Validate(req)
	if err != nil {
		s.logger.Warnf("Калибровка камеры %s отклонена: %v", req.CameraID, err)
		return nil, false, err
	}

	resp, created, err := s.save(cal)
	if err != nil {
		return nil, false, err
	}

	s.logger.WithFields(logrus.Fields{"camera_id": cal.CameraID, "rows": len(cal.Rows), "created": created}).
		Info("Калибровка сохранена")
	return resp, created, nil
}

// Get получает калибровку камеры
func (s *CalibrationService) Get(cameraID string) (*models.CalibrationResponse, error) {
	m, err := s.repo.GetByCameraID(cameraID)
	if err != nil {
		return nil, err
	}
	return modelToCalibrationResponse(m)
}

// Load получает калибровку камеры в виде, пригодном для анализа кадров
func (s *CalibrationService) Load(cameraID string) (*calibration.Calibration, error) {
	m, err := s.repo.GetByCameraID(cameraID)
	if err != nil {
		return nil, err
	}
	req, err := modelToRequest(m)
	if err != nil {
		return nil, err
	}

	// Сохраненная калибровка проверяется повторно перед анализом
	cal, err := calibration.Validate(req)
	if err != nil {
		return nil, &calibration.ConfigurationError{CameraID: cameraID, Err: err}
	}
	return cal, nil
}

// Update частично обновляет калибровку; итог проверяется целиком
func (s *CalibrationService) Update(cameraID string, upd models.CalibrationUpdateRequest) (*models.CalibrationResponse, error) {
	m, err := s.repo.GetByCameraID(cameraID)
	if err != nil {
		return nil, err
	}
	req, err := modelToRequest(m)
	if err != nil {
		return nil, err
	}

	if upd.Rows != nil {
		req.Rows = upd.Rows
	}
	if upd.MinSpaceWidth != nil {
		req.MinSpaceWidth = *upd.MinSpaceWidth
	}
	if upd.SpaceCoefficient != nil {
		req.SpaceCoefficient = *upd.SpaceCoefficient
	}
	if upd.RowStartX != nil {
		req.RowStartX = upd.RowStartX
	}
	if upd.RowEndX != nil {
		req.RowEndX = upd.RowEndX
	}

	cal, err := s.validator.Validate(req)
	if err != nil {
		s.logger.Warnf("Обновление калибровки камеры %s отклонено: %v", cameraID, err)
		return nil, err
	}

	resp, _, err := s.save(cal)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Калибровка камеры %s обновлена", cameraID)
	return resp, nil
}

// Delete удаляет калибровку камеры
func (s *CalibrationService) Delete(cameraID string) error {
	if err := s.repo.Delete(cameraID); err != nil {
		return err
	}
	s.logger.Infof("Калибровка камеры %s удалена", cameraID)
	return nil
}

// List получает список калибровок
func (s *CalibrationService) List(skip, limit int) ([]models.CalibrationResponse, int64, error) {
	items, total, err := s.repo.List(skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list calibrations: %w", err)
	}

	responses := make([]models.CalibrationResponse, 0, len(items))
	for _, m := range items {
		resp, err := modelToCalibrationResponse(m)
		if err != nil {
			s.logger.Errorf("Поврежденная калибровка камеры %s пропущена: %v", m.CameraID, err)
			continue
		}
		responses = append(responses, *resp)
	}
	return responses, total, nil
}

func (s *CalibrationService) save(cal *calibration.Calibration) (*models.CalibrationResponse, bool, error) {
	req := cal.ToRequest()
	rows, err := toJSON(req.Rows)
	if err != nil {
		return nil, false, err
	}

	m := &model.Calibration{
		CameraID:         cal.CameraID,
		Rows:             rows,
		MinSpaceWidth:    cal.MinSpaceWidth,
		SpaceCoefficient: cal.SpaceCoefficient,
		RowStartX:        cal.RowStartX,
		RowEndX:          cal.RowEndX,
	}
	created, err := s.repo.Upsert(m)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save calibration: %w", err)
	}

	resp, err := modelToCalibrationResponse(m)
	return resp, created, err
}

// modelToRequest преобразует модель базы данных в запрос калибровки
func modelToRequest(m *model.Calibration) (models.CalibrationRequest, error) {
	var rows []models.CalibrationRowRequest
	if err := fromJSON(m.Rows, &rows); err != nil {
		return models.CalibrationRequest{}, fmt.Errorf("calibration %s rows: %w", m.CameraID, err)
	}
	startX, endX := m.RowStartX, m.RowEndX
	return models.CalibrationRequest{
		CameraID:         m.CameraID,
		Rows:             rows,
		MinSpaceWidth:    m.MinSpaceWidth,
		SpaceCoefficient: m.SpaceCoefficient,
		RowStartX:        &startX,
		RowEndX:          &endX,
	}, nil
}

// modelToCalibrationResponse преобразует модель базы данных в ответ API
func modelToCalibrationResponse(m *model.Calibration) (*models.CalibrationResponse, error) {
	req, err := modelToRequest(m)
	if err != nil {
		return nil, err
	}
	if req.Rows == nil {
		req.Rows = []models.CalibrationRowRequest{}
	}
	return &models.CalibrationResponse{
		CameraID:         m.CameraID,
		Rows:             req.Rows,
		MinSpaceWidth:    m.MinSpaceWidth,
		SpaceCoefficient: m.SpaceCoefficient,
		RowStartX:        m.RowStartX,
		RowEndX:          m.RowEndX,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}
