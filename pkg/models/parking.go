package models

// BoundingBox представляет одну детекцию внешнего детектора объектов
type BoundingBox struct {
	X1         float64 `json:"x1"`         // Левая граница (пиксели)
	Y1         float64 `json:"y1"`         // Верхняя граница (пиксели)
	X2         float64 `json:"x2"`         // Правая граница (пиксели)
	Y2         float64 `json:"y2"`         // Нижняя граница (пиксели)
	Confidence float64 `json:"confidence"` // Уверенность детектора
	ClassName  string  `json:"class_name"` // Класс объекта
}

// Width возвращает ширину рамки
func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

// Height возвращает высоту рамки
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// CenterX возвращает горизонтальный центр рамки
func (b BoundingBox) CenterX() float64 {
	return (b.X1 + b.X2) / 2
}

// CenterY возвращает вертикальный центр рамки
func (b BoundingBox) CenterY() float64 {
	return (b.Y1 + b.Y2) / 2
}

// BBox координаты рамки в ответе анализа
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// DetectionWithRow детекция, привязанная к ряду парковки
type DetectionWithRow struct {
	BBox           BBox    `json:"bbox"`             // Координаты рамки
	Confidence     float64 `json:"confidence"`       // Уверенность детектора
	ClassName      string  `json:"class_name"`       // Класс объекта
	AssignedRow    int     `json:"assigned_row"`     // Индекс назначенного ряда
	RowYCoordinate int     `json:"row_y_coordinate"` // Y линии назначенного ряда
}

// EmptySpace свободный участок внутри ряда
type EmptySpace struct {
	SpaceID            string  `json:"space_id"`            // Идентификатор: row{idx}_full/_start/_space{n}/_end
	RowIndex           int     `json:"row_index"`           // Индекс ряда
	X1                 int     `json:"x1"`                  // Левая граница
	X2                 int     `json:"x2"`                  // Правая граница
	Y1                 int     `json:"y1"`                  // Верхняя граница
	Y2                 int     `json:"y2"`                  // Нижняя граница
	Width              float64 `json:"width"`               // Ширина, всегда X2 - X1
	CanFitMotorcycle   bool    `json:"can_fit_motorcycle"`  // Помещается ли мотоцикл
	MotorcycleCapacity int     `json:"motorcycle_capacity"` // Сколько мотоциклов помещается
}

// ParkingAnalysis результат анализа одного кадра.
// EmptySpacesPerRow сериализуется в JSON со строковыми ключами.
type ParkingAnalysis struct {
	SessionID            string             `json:"session_id"`
	CameraID             string             `json:"camera_id"`
	Detections           []DetectionWithRow `json:"detections"`
	EmptySpaces          []EmptySpace       `json:"empty_spaces"`
	TotalMotorcycles     int                `json:"total_motorcycles"`
	TotalEmptySpaces     int                `json:"total_empty_spaces"`
	EmptySpacesPerRow    map[int]int        `json:"empty_spaces_per_row"`
	ParkingOccupancyRate float64            `json:"parking_occupancy_rate"`
}

// AnalysisSummary краткая сводка анализа для ответа на загрузку кадра
type AnalysisSummary struct {
	TotalMotorcycles     int            `json:"total_motorcycles"`
	TotalEmptySpaces     int            `json:"total_empty_spaces"`
	EmptySpacesPerRow    map[string]int `json:"empty_spaces_per_row"`
	ParkingOccupancyRate float64        `json:"parking_occupancy_rate"`
}
