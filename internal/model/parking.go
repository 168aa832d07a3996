package model

import (
	"time"

	"gorm.io/datatypes"
)

// Статусы сессии детекции
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Calibration представляет калибровку камеры в базе данных
type Calibration struct {
	CameraID         string         `gorm:"primaryKey;type:varchar(100)" json:"camera_id"`
	Rows             datatypes.JSON `gorm:"type:jsonb;not null" json:"rows"` // []models.CalibrationRowRequest
	MinSpaceWidth    float64        `gorm:"not null;default:150" json:"min_space_width"`
	SpaceCoefficient float64        `gorm:"not null;default:0.8" json:"space_coefficient"`
	RowStartX        int            `gorm:"not null;default:0" json:"row_start_x"`
	RowEndX          int            `gorm:"not null;default:1920" json:"row_end_x"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DetectionSession представляет сессию детекции (серию кадров одной камеры)
type DetectionSession struct {
	SessionID         string `gorm:"primaryKey;type:varchar(64)" json:"session_id"`
	CameraID          string `gorm:"type:varchar(100);index" json:"camera_id"`
	Status            string `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	TotalFrames       int    `gorm:"not null;default:0" json:"total_frames"`
	MaxDetectionCount int    `gorm:"not null;default:0" json:"max_detection_count"`

	// Лучший кадр (максимум детекций)
	BestFrame          datatypes.JSON `gorm:"type:jsonb" json:"best_frame"` // models.FrameDetection
	BestFrameImagePath string         `gorm:"type:varchar(500)" json:"best_frame_image_path"`

	// Последний анализ парковки, nil пока анализ не выполнялся
	TotalMotorcycles     *int           `json:"total_motorcycles"`
	TotalEmptySpaces     *int           `json:"total_empty_spaces"`
	ParkingOccupancyRate *float64       `json:"parking_occupancy_rate"`
	EmptySpacesPerRow    datatypes.JSON `gorm:"type:jsonb" json:"empty_spaces_per_row"` // map[string]int
	EmptySpaces          datatypes.JSON `gorm:"type:jsonb" json:"empty_spaces"`         // []models.EmptySpace
	Detections           datatypes.JSON `gorm:"type:jsonb" json:"detections"`           // []models.DetectionWithRow

	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Последние кадры сессии
	Frames []Frame `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE" json:"frames"`
}

// HasAnalysis сохранен ли в сессии результат анализа парковки
func (s *DetectionSession) HasAnalysis() bool {
	return s.TotalMotorcycles != nil && s.TotalEmptySpaces != nil
}

// Frame представляет загруженный кадр сессии
type Frame struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	FrameID        string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"frame_id"`
	SessionID      string         `gorm:"type:varchar(64);not null;index" json:"session_id"`
	Timestamp      time.Time      `gorm:"not null" json:"timestamp"`
	DetectionCount int            `gorm:"not null;default:0" json:"detection_count"`
	Detections     datatypes.JSON `gorm:"type:jsonb" json:"detections"` // []models.BoundingBox

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName указывает имя таблицы для Calibration
func (Calibration) TableName() string {
	return "calibrations"
}

// TableName указывает имя таблицы для DetectionSession
func (DetectionSession) TableName() string {
	return "detection_sessions"
}

// TableName указывает имя таблицы для Frame
func (Frame) TableName() string {
	return "frames"
}
