package models

import "time"

// CalibrationRowRequest описание ряда во входящем запросе калибровки
type CalibrationRowRequest struct {
	RowIndex    int    `json:"row_index"`         // Индекс ряда (0 - ближайший к камере)
	YCoordinate int    `json:"y_coordinate"`      // Y линии ряда
	Label       string `json:"label"`             // Подпись ряда
	StartX      *int   `json:"start_x,omitempty"` // Левая граница ряда (опционально)
	EndX        *int   `json:"end_x,omitempty"`   // Правая граница ряда (опционально)
}

// CalibrationRequest запрос на создание калибровки камеры
type CalibrationRequest struct {
	CameraID         string                  `json:"camera_id"`
	Rows             []CalibrationRowRequest `json:"rows"`
	MinSpaceWidth    float64                 `json:"min_space_width"`
	SpaceCoefficient float64                 `json:"space_coefficient"`
	RowStartX        *int                    `json:"row_start_x,omitempty"`
	RowEndX          *int                    `json:"row_end_x,omitempty"`
}

// CalibrationUpdateRequest частичное обновление калибровки, nil поля не меняются
type CalibrationUpdateRequest struct {
	Rows             []CalibrationRowRequest `json:"rows,omitempty"`
	MinSpaceWidth    *float64                `json:"min_space_width,omitempty"`
	SpaceCoefficient *float64                `json:"space_coefficient,omitempty"`
	RowStartX        *int                    `json:"row_start_x,omitempty"`
	RowEndX          *int                    `json:"row_end_x,omitempty"`
}

// CalibrationResponse калибровка камеры в ответе API
type CalibrationResponse struct {
	CameraID         string                  `json:"camera_id"`
	Rows             []CalibrationRowRequest `json:"rows"`
	MinSpaceWidth    float64                 `json:"min_space_width"`
	SpaceCoefficient float64                 `json:"space_coefficient"`
	RowStartX        int                     `json:"row_start_x"`
	RowEndX          int                     `json:"row_end_x"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// DetectorAPIResponse ответ внешнего сервиса детекции
type DetectorAPIResponse struct {
	Status     string        `json:"status"`     // Статус выполнения
	Message    string        `json:"message"`    // Сообщение
	Detections []BoundingBox `json:"detections"` // Найденные рамки
}

// FrameDetection детекции одного загруженного кадра
type FrameDetection struct {
	FrameID        string        `json:"frame_id"`
	Timestamp      time.Time     `json:"timestamp"`
	Detections     []BoundingBox `json:"detections"`
	DetectionCount int           `json:"detection_count"`
	ImagePath      string        `json:"image_path,omitempty"`
}

// UploadFrameResponse ответ на загрузку кадра
type UploadFrameResponse struct {
	FrameID         string           `json:"frame_id"`
	SessionID       string           `json:"session_id"`
	DetectionCount  int              `json:"detection_count"`
	Detections      []BoundingBox    `json:"detections"`
	IsBest          bool             `json:"is_best"`
	ParkingAnalysis *AnalysisSummary `json:"parking_analysis,omitempty"`
}

// SessionResult результат сессии детекции
type SessionResult struct {
	SessionID            string             `json:"session_id"`
	CameraID             string             `json:"camera_id,omitempty"`
	Status               string             `json:"status"`
	MaxDetectionCount    int                `json:"max_detection_count"`
	BestFrame            *FrameDetection    `json:"best_frame,omitempty"`
	TotalFrames          int                `json:"total_frames"`
	EmptySpaces          []EmptySpace       `json:"empty_spaces,omitempty"`
	Detections           []DetectionWithRow `json:"detections,omitempty"`
	TotalMotorcycles     *int               `json:"total_motorcycles,omitempty"`
	TotalEmptySpaces     *int               `json:"total_empty_spaces,omitempty"`
	EmptySpacesPerRow    map[string]int     `json:"empty_spaces_per_row,omitempty"`
	ParkingOccupancyRate *float64           `json:"parking_occupancy_rate,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// SessionSummary краткая информация о сессии для списков
type SessionSummary struct {
	SessionID          string    `json:"session_id"`
	CameraID           string    `json:"camera_id,omitempty"`
	MaxDetectionCount  int       `json:"max_detection_count"`
	Status             string    `json:"status"`
	HasParkingAnalysis bool      `json:"has_parking_analysis"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// LatestResultsResponse список завершенных сессий
type LatestResultsResponse struct {
	Total    int              `json:"total"`
	Sessions []SessionSummary `json:"sessions"`
}

// StatsResponse статистика системы
type StatsResponse struct {
	TotalSessions     int64     `json:"total_sessions"`
	ActiveSessions    int64     `json:"active_sessions"`
	CompletedSessions int64     `json:"completed_sessions"`
	TotalDetections   int64     `json:"total_detections"`
	Timestamp         time.Time `json:"timestamp"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status      string `json:"status"`       // Статус сервиса (healthy/unhealthy)
	ModelLoaded bool   `json:"model_loaded"` // Загружена ли модель детектора
	Version     string `json:"version"`      // Версия сервиса
}
