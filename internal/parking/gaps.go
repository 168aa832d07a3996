package parking

import (
	"fmt"
	"math"
	"sort"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// SkipReason причина, по которой элемент ряда не дал свободного места
type SkipReason int

const (
	// SkipInvalidDetection детекция с вырожденными координатами
	SkipInvalidDetection SkipReason = iota
	// SkipOverlap соседние детекции перекрываются
	SkipOverlap
	// SkipUnknownRow ряда с таким индексом нет в калибровке
	SkipUnknownRow
	// SkipRecovered непредвиденная ошибка при обработке ряда
	SkipRecovered
)

func (r SkipReason) String() string {
	switch r {
	case SkipInvalidDetection:
		return "invalid_detection"
	case SkipOverlap:
		return "overlap"
	case SkipUnknownRow:
		return "unknown_row"
	case SkipRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Skip пропущенный элемент ряда. Position - индекс детекции (для
// SkipInvalidDetection) или пары после сортировки (для SkipOverlap).
type Skip struct {
	Reason   SkipReason
	Position int
	Detail   string
}

// RowGaps результат поиска свободных мест в одном ряду
type RowGaps struct {
	RowIndex int
	Expected float64
	Spaces   []models.EmptySpace
	Skipped  []Skip
}

// FindGaps ищет свободные промежутки в ряду между назначенными ему детекциями.
// Промежуток попадает в результат, только если его ширина не меньше ожидаемой.
// Ошибка обработки ряда не прерывает анализ: ряд просто не дает мест.
func (d *Detector) FindGaps(rowIndex int, detections []models.BoundingBox) (gaps RowGaps) {
	gaps = RowGaps{RowIndex: rowIndex, Spaces: []models.EmptySpace{}}
	log := d.logger.WithField("row_index", rowIndex)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Непредвиденная ошибка при поиске мест в ряду: %v", r)
			gaps.Spaces = []models.EmptySpace{}
			gaps.Skipped = append(gaps.Skipped, Skip{Reason: SkipRecovered, Position: -1, Detail: fmt.Sprint(r)})
		}
	}()

	if d.beforeRow != nil {
		d.beforeRow(rowIndex)
	}

	row, ok := d.cal.RowByIndex(rowIndex)
	if !ok {
		log.Warn("Ряд не найден в калибровке")
		gaps.Skipped = append(gaps.Skipped, Skip{Reason: SkipUnknownRow, Position: -1})
		return gaps
	}

	startX, endX := d.cal.Bounds(row)
	expected := d.ExpectedSpace(rowIndex)
	gaps.Expected = expected

	// Пустой ряд целиком является одним свободным местом
	if len(detections) == 0 {
		y1, y2 := rowBoundaries(row, nil)
		if space, ok := newSpace(fmt.Sprintf("row%d_full", rowIndex), rowIndex, float64(startX), float64(endX), y1, y2, expected); ok {
			log.Debug("Ряд пуст, создается место на весь ряд")
			gaps.Spaces = append(gaps.Spaces, space)
		} else {
			log.Debugf("Пустой ряд шириной %d меньше ожидаемой %.1f", endX-startX, expected)
		}
		return gaps
	}

	valid := make([]models.BoundingBox, 0, len(detections))
	for i, det := range detections {
		if !validDetection(det) {
			log.WithFields(logrus.Fields{"x1": det.X1, "x2": det.X2, "y1": det.Y1, "y2": det.Y2}).
				Warn("Некорректная детекция исключена из поиска мест")
			gaps.Skipped = append(gaps.Skipped, Skip{Reason: SkipInvalidDetection, Position: i})
			continue
		}
		valid = append(valid, det)
	}

	if len(valid) == 0 {
		log.Warn("В ряду не осталось корректных детекций после фильтрации")
		return gaps
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].X1 < valid[j].X1
	})
	y1, y2 := rowBoundaries(row, valid)

	// Место перед первой детекцией
	if space, ok := newSpace(fmt.Sprintf("row%d_start", rowIndex), rowIndex, float64(startX), valid[0].X1, y1, y2, expected); ok {
		gaps.Spaces = append(gaps.Spaces, space)
	}

	// Места между соседними детекциями
	for i := 0; i < len(valid)-1; i++ {
		left, right := valid[i].X2, valid[i+1].X1

		if right < left {
			log.Warnf("Отрицательный промежуток %.1f в позиции %d, детекции перекрываются", right-left, i)
			gaps.Skipped = append(gaps.Skipped, Skip{
				Reason:   SkipOverlap,
				Position: i,
				Detail:   fmt.Sprintf("gap width %.1f", right-left),
			})
			continue
		}

		if space, ok := newSpace(fmt.Sprintf("row%d_space%d", rowIndex, i), rowIndex, left, right, y1, y2, expected); ok {
			gaps.Spaces = append(gaps.Spaces, space)
		}
	}

	// Место после последней детекции
	if space, ok := newSpace(fmt.Sprintf("row%d_end", rowIndex), rowIndex, valid[len(valid)-1].X2, float64(endX), y1, y2, expected); ok {
		gaps.Spaces = append(gaps.Spaces, space)
	}

	log.Debugf("Ряд: %d детекций, %d свободных мест, ожидаемая ширина %.1f", len(valid), len(gaps.Spaces), expected)
	return gaps
}

// rowBoundaries вертикальные границы мест ряда: средняя высота детекций
// ряда вокруг линии ряда, либо 100 пикселей, если детекций нет
func rowBoundaries(row calibration.Row, detections []models.BoundingBox) (int, int) {
	yCenter := float64(row.YCoordinate)
	halfHeight := defaultHalfHeight

	if len(detections) > 0 {
		heights := make([]float64, len(detections))
		for i, det := range detections {
			heights[i] = det.Height()
		}
		halfHeight = stat.Mean(heights, nil) / 2
	}

	y1 := int(yCenter - halfHeight)
	if y1 < 0 {
		y1 = 0
	}
	y2 := int(yCenter + halfHeight)
	return y1, y2
}

// newSpace строит место для промежутка [left, right]. Решение принимается по
// ширине в дробных пикселях; координаты места округляются внутрь промежутка,
// поэтому целая ширина места никогда не превышает реальную.
func newSpace(spaceID string, rowIndex int, left, right float64, y1, y2 int, expected float64) (models.EmptySpace, bool) {
	if right-left < expected {
		return models.EmptySpace{}, false
	}
	x1 := int(math.Ceil(left))
	x2 := int(math.Floor(right))
	width := float64(x2 - x1)
	if width < expected {
		return models.EmptySpace{}, false
	}
	return models.EmptySpace{
		SpaceID:            spaceID,
		RowIndex:           rowIndex,
		X1:                 x1,
		X2:                 x2,
		Y1:                 y1,
		Y2:                 y2,
		Width:              width,
		CanFitMotorcycle:   true,
		MotorcycleCapacity: capacity(width, expected),
	}, true
}

// capacity сколько мест ожидаемой ширины помещается в промежуток
func capacity(width, expected float64) int {
	if expected <= 0 {
		return 0
	}
	return int(math.Floor(width / expected))
}

func validDetection(det models.BoundingBox) bool {
	if !finite(det.X1, det.X2, det.Y1, det.Y2) {
		return false
	}
	return det.X1 >= 0 && det.X2 > det.X1 && det.Y1 >= 0 && det.Y2 > det.Y1
}
