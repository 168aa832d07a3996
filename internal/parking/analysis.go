package parking

import (
	"fmt"
	"math"

	"parking-detector-go/pkg/models"
)

// Report полный результат анализа кадра вместе с диагностикой по рамкам и рядам
type Report struct {
	Analysis    *models.ParkingAnalysis
	Assignments []Assignment // по одному на каждую входную рамку, в исходном порядке
	Rows        []RowGaps    // по одному на каждый ряд калибровки, в порядке row_index
	Recovered   string       // непустое, если анализ был прерван и заменен пустым результатом
}

// Analyze выполняет анализ кадра: назначает рамки рядам, ищет свободные места
// в каждом ряду и считает заполненность. Ошибка возвращается только при
// отсутствии рядов в калибровке.
func (d *Detector) Analyze(detections []models.BoundingBox, sessionID string) (*models.ParkingAnalysis, error) {
	report, err := d.AnalyzeWithReport(detections, sessionID)
	if err != nil {
		return nil, err
	}
	return report.Analysis, nil
}

// AnalyzeWithReport как Analyze, но дополнительно возвращает причины пропуска рамок и промежутков
func (d *Detector) AnalyzeWithReport(detections []models.BoundingBox, sessionID string) (report *Report, err error) {
	if len(d.rows) == 0 {
		return nil, d.configurationError()
	}

	log := d.logger.WithField("session_id", sessionID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Критическая ошибка анализа парковки: %v", r)
			report = &Report{
				Analysis:  d.emptyAnalysis(sessionID),
				Recovered: fmt.Sprint(r),
			}
			err = nil
		}
	}()

	if d.beforeFrame != nil {
		d.beforeFrame(detections)
	}

	report = &Report{
		Assignments: make([]Assignment, len(detections)),
		Rows:        make([]RowGaps, 0, len(d.rows)),
	}
	analysis := d.emptyAnalysis(sessionID)

	// Назначение рамок рядам
	byRow := make([][]models.BoundingBox, len(d.rows))
	for i, det := range detections {
		assignment, err := d.AssignToRow(det)
		if err != nil {
			return nil, err
		}
		report.Assignments[i] = assignment
		if !assignment.IsAssigned() {
			log.Debugf("Рамка Y=%.0f-%.0f не назначена: %s", det.Y1, det.Y2, assignment.Status)
			continue
		}

		analysis.Detections = append(analysis.Detections, models.DetectionWithRow{
			BBox: models.BBox{
				X1: det.X1,
				Y1: det.Y1,
				X2: det.X2,
				Y2: det.Y2,
			},
			Confidence:     det.Confidence,
			ClassName:      det.ClassName,
			AssignedRow:    assignment.RowIndex,
			RowYCoordinate: assignment.RowY,
		})

		pos, _ := d.position(assignment.RowIndex)
		byRow[pos] = append(byRow[pos], det)
	}

	// Поиск свободных мест в каждом ряду, включая ряды без детекций
	for pos, row := range d.rows {
		gaps := d.FindGaps(row.RowIndex, byRow[pos])
		report.Rows = append(report.Rows, gaps)
		analysis.EmptySpaces = append(analysis.EmptySpaces, gaps.Spaces...)
		analysis.EmptySpacesPerRow[row.RowIndex] = len(gaps.Spaces)
	}

	analysis.TotalMotorcycles = len(analysis.Detections)
	analysis.TotalEmptySpaces = len(analysis.EmptySpaces)
	if analysis.TotalMotorcycles+analysis.TotalEmptySpaces == 0 {
		log.Warn("Не найдено ни мотоциклов, ни свободных мест")
	}
	analysis.ParkingOccupancyRate = OccupancyRate(analysis.TotalMotorcycles, analysis.TotalEmptySpaces)

	log.Infof("Анализ парковки: %d мотоциклов, %d свободных мест, заполненность %.2f%%",
		analysis.TotalMotorcycles, analysis.TotalEmptySpaces, analysis.ParkingOccupancyRate)

	report.Analysis = analysis
	return report, nil
}

// OccupancyRate процент занятых мест, округленный до 2 знаков; 0 при отсутствии мест
func OccupancyRate(occupied, empty int) float64 {
	total := occupied + empty
	if total <= 0 || occupied <= 0 {
		return 0
	}
	rate := float64(occupied) / float64(total) * 100
	return math.Round(rate*100) / 100
}

func (d *Detector) emptyAnalysis(sessionID string) *models.ParkingAnalysis {
	return &models.ParkingAnalysis{
		SessionID:         sessionID,
		CameraID:          d.cal.CameraID,
		Detections:        []models.DetectionWithRow{},
		EmptySpaces:       []models.EmptySpace{},
		EmptySpacesPerRow: map[int]int{},
	}
}
