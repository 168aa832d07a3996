package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/internal/events"
	"parking-detector-go/internal/model"
	"parking-detector-go/internal/parking"
	"parking-detector-go/internal/repository"
	"parking-detector-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FrameServiceConfig параметры хранения кадров
type FrameServiceConfig struct {
	MaxFramesPerSession int
	BestFramesDir       string
}

// FrameService принимает кадры, запускает детекцию и анализ парковки
type FrameService struct {
	detector     ObjectDetector
	calibrations CalibrationLoader
	sessions     repository.SessionRepository
	publisher    events.AnalysisPublisher
	config       FrameServiceConfig
	logger       *logrus.Logger

	// сериализует чтение-изменение-запись сессий
	mu sync.Mutex
}

// NewFrameService создает новый сервис загрузки кадров
func NewFrameService(
	detector ObjectDetector,
	calibrations CalibrationLoader,
	sessions repository.SessionRepository,
	publisher events.AnalysisPublisher,
	config FrameServiceConfig,
	logger *logrus.Logger,
) *FrameService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &FrameService{
		detector:     detector,
		calibrations: calibrations,
		sessions:     sessions,
		publisher:    publisher,
		config:       config,
		logger:       logger,
	}
}

// GenerateSessionID генерирует уникальный ID сессии
func (s *FrameService) GenerateSessionID() string {
	return uuid.New().String()
}

// UploadFrame обрабатывает один кадр сессии. Если для камеры есть калибровка,
// выполняется анализ свободных мест, результат сохраняется в сессии и публикуется.
func (s *FrameService) UploadFrame(ctx context.Context, sessionID, cameraID, filename string, image []byte) (*models.UploadFrameResponse, error) {
	if !ValidSessionID(sessionID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "camera_id": cameraID})

	// 1. Детекция на внешнем сервисе
	detections, err := s.detector.Detect(ctx, filename, image)
	if err != nil {
		log.Errorf("Ошибка детекции: %v", err)
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	log.Infof("Детектор нашел %d объектов", len(detections))

	// 2. Анализ парковки
	analysis := s.analyze(log, sessionID, cameraID, detections)

	// 3. Обновление сессии
	frameID := uuid.New().String()
	isBest, err := s.recordFrame(sessionID, cameraID, frameID, filename, image, detections, analysis)
	if err != nil {
		log.Errorf("Ошибка сохранения кадра: %v", err)
		return nil, err
	}

	// 4. Публикация результата
	if analysis != nil {
		if err := s.publisher.PublishAnalysis(ctx, events.NewAnalysisEvent(frameID, analysis)); err != nil {
			log.Warnf("Не удалось опубликовать результат анализа: %v", err)
		}
	}

	return &models.UploadFrameResponse{
		FrameID:         frameID,
		SessionID:       sessionID,
		DetectionCount:  len(detections),
		Detections:      detections,
		IsBest:          isBest,
		ParkingAnalysis: summarize(analysis),
	}, nil
}

// analyze возвращает nil, если анализ невозможен; загрузка кадра при этом продолжается
func (s *FrameService) analyze(log *logrus.Entry, sessionID, cameraID string, detections []models.BoundingBox) *models.ParkingAnalysis {
	if cameraID == "" {
		return nil
	}

	cal, err := s.calibrations.Load(cameraID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Калибровка камеры не найдена, анализ парковки пропущен")
		} else {
			log.Errorf("Не удалось загрузить калибровку: %v", err)
		}
		return nil
	}

	analysis, err := parking.NewDetector(cal, log).Analyze(detections, sessionID)
	if err != nil {
		var cfgErr *calibration.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Warnf("Калибровка непригодна для анализа: %v", err)
		} else {
			log.Errorf("Ошибка анализа парковки: %v", err)
		}
		return nil
	}
	return analysis
}

func (s *FrameService) recordFrame(sessionID, cameraID, frameID, filename string, image []byte, detections []models.BoundingBox, analysis *models.ParkingAnalysis) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("failed to get session: %w", err)
		}
		session = &model.DetectionSession{
			SessionID: sessionID,
			CameraID:  cameraID,
			Status:    model.SessionStatusActive,
		}
		s.logger.Infof("Создана новая сессия %s", sessionID)
	}
	if session.CameraID == "" {
		session.CameraID = cameraID
	}

	detectionsJSON, err := toJSON(detections)
	if err != nil {
		return false, err
	}
	frame := &model.Frame{
		FrameID:        frameID,
		SessionID:      sessionID,
		Timestamp:      time.Now(),
		DetectionCount: len(detections),
		Detections:     detectionsJSON,
	}
	session.TotalFrames++

	// Лучший кадр - с наибольшим числом детекций. Изображение пишется во
	// временный файл и занимает свое место только после сохранения сессии.
	isBest := len(detections) > session.MaxDetectionCount
	var staged *stagedFrame
	if isBest {
		staged, err = s.stageBestFrame(sessionID, filename, image)
		if err != nil {
			return false, err
		}
		best, err := toJSON(models.FrameDetection{
			FrameID:        frameID,
			Timestamp:      frame.Timestamp,
			Detections:     detections,
			DetectionCount: len(detections),
			ImagePath:      staged.path,
		})
		if err != nil {
			staged.discard(s.logger)
			return false, err
		}
		staged.previous = session.BestFrameImagePath
		session.MaxDetectionCount = len(detections)
		session.BestFrame = best
		session.BestFrameImagePath = staged.path
	}

	if analysis != nil {
		if err := applyAnalysis(session, analysis); err != nil {
			staged.discard(s.logger)
			return false, err
		}
	}

	if err := s.sessions.SaveFrame(session, frame, s.config.MaxFramesPerSession); err != nil {
		staged.discard(s.logger)
		return false, fmt.Errorf("failed to save frame: %w", err)
	}
	staged.commit(s.logger)
	return isBest, nil
}

func applyAnalysis(session *model.DetectionSession, analysis *models.ParkingAnalysis) error {
	perRow, err := toJSON(rowKeys(analysis.EmptySpacesPerRow))
	if err != nil {
		return err
	}
	spaces, err := toJSON(analysis.EmptySpaces)
	if err != nil {
		return err
	}
	detections, err := toJSON(analysis.Detections)
	if err != nil {
		return err
	}

	totalMotorcycles := analysis.TotalMotorcycles
	totalEmpty := analysis.TotalEmptySpaces
	occupancy := analysis.ParkingOccupancyRate
	session.TotalMotorcycles = &totalMotorcycles
	session.TotalEmptySpaces = &totalEmpty
	session.ParkingOccupancyRate = &occupancy
	session.EmptySpacesPerRow = perRow
	session.EmptySpaces = spaces
	session.Detections = detections
	return nil
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".webp": true}

// stagedFrame изображение лучшего кадра, записанное во временный файл
type stagedFrame struct {
	tmp      string
	path     string
	previous string
}

// stageBestFrame записывает изображение во временный файл рядом с итоговым путем
func (s *FrameService) stageBestFrame(sessionID, originalFilename string, image []byte) (*stagedFrame, error) {
	if err := os.MkdirAll(s.config.BestFramesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create best frames directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !imageExtensions[ext] {
		ext = ".jpg"
	}

	tmp, err := os.CreateTemp(s.config.BestFramesDir, sessionID+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create best frame file: %w", err)
	}
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write best frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write best frame: %w", err)
	}

	return &stagedFrame{
		tmp:  tmp.Name(),
		path: filepath.Join(s.config.BestFramesDir, sessionID+ext),
	}, nil
}

// commit переносит изображение на итоговый путь и удаляет предыдущий лучший кадр
func (f *stagedFrame) commit(logger *logrus.Logger) {
	if f == nil {
		return
	}
	if err := os.Rename(f.tmp, f.path); err != nil {
		logger.Errorf("Не удалось сохранить лучший кадр %s: %v", f.path, err)
		f.discard(logger)
		return
	}
	logger.Debugf("Лучший кадр сохранен: %s", f.path)

	if f.previous != "" && f.previous != f.path {
		if err := os.Remove(f.previous); err != nil && !os.IsNotExist(err) {
			logger.Warnf("Не удалось удалить предыдущий лучший кадр %s: %v", f.previous, err)
		}
	}
}

// discard удаляет временный файл, предыдущий лучший кадр не затрагивается
func (f *stagedFrame) discard(logger *logrus.Logger) {
	if f == nil {
		return
	}
	if err := os.Remove(f.tmp); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Не удалось удалить временный файл %s: %v", f.tmp, err)
	}
}

// CompleteSession помечает сессию завершенной
func (s *FrameService) CompleteSession(sessionID string) (*models.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Complete(sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":          sessionID,
		"total_frames":        session.TotalFrames,
		"max_detection_count": session.MaxDetectionCount,
	}).Info("Сессия завершена")
	return sessionToResult(session)
}
