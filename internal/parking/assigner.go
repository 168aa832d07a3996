package parking

import (
	"math"

	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// AssignmentStatus исход назначения рамки ряду
type AssignmentStatus int

const (
	// Assigned рамка назначена ряду
	Assigned AssignmentStatus = iota
	// UnassignedInvalidBox вырожденные вертикальные координаты
	UnassignedInvalidBox
	// UnassignedNoRow ни одна линия ряда не проходит через рамку
	UnassignedNoRow
	// UnassignedOutOfBounds линия проходит через рамку, но центр вне границ ряда
	UnassignedOutOfBounds
)

func (s AssignmentStatus) String() string {
	switch s {
	case Assigned:
		return "assigned"
	case UnassignedInvalidBox:
		return "invalid_box"
	case UnassignedNoRow:
		return "no_row"
	case UnassignedOutOfBounds:
		return "out_of_bounds"
	default:
		return "unknown"
	}
}

// Assignment результат назначения. Для неназначенных рамок RowIndex и RowY равны -1.
type Assignment struct {
	Status     AssignmentStatus
	RowIndex   int
	RowY       int
	Candidates int // сколько рядов прошли обе проверки
}

// IsAssigned сообщает, назначена ли рамка ряду
func (a Assignment) IsAssigned() bool {
	return a.Status == Assigned
}

func unassigned(status AssignmentStatus) Assignment {
	return Assignment{Status: status, RowIndex: -1, RowY: -1}
}

// AssignToRow назначает рамку ряду, линия которого проходит через рамку
// и в границах которого лежит центр рамки по X. Если подходят несколько рядов,
// выбирается ближайший к вертикальному центру рамки; при равенстве - первый по row_index.
// Возвращает ConfigurationError, если в калибровке нет рядов.
func (d *Detector) AssignToRow(box models.BoundingBox) (Assignment, error) {
	if len(d.rows) == 0 {
		return unassigned(UnassignedNoRow), d.configurationError()
	}

	if !finite(box.Y1, box.Y2, box.X1, box.X2) || box.Y1 < 0 || box.Y2 < 0 || box.Y1 >= box.Y2 {
		d.logger.WithFields(logrus.Fields{"y1": box.Y1, "y2": box.Y2}).
			Warn("Некорректные координаты рамки, детекция пропущена")
		return unassigned(UnassignedInvalidBox), nil
	}

	centerX := box.CenterX()
	outOfBounds := false
	candidates := make([]int, 0, len(d.rows))

	for i, row := range d.rows {
		rowY := float64(row.YCoordinate)
		if rowY < box.Y1 || rowY > box.Y2 {
			continue
		}

		startX, endX := d.cal.Bounds(row)
		if centerX < float64(startX) || centerX > float64(endX) {
			outOfBounds = true
			d.logger.Debugf("Центр X=%.0f вне границ ряда %d (X=%d-%d)", centerX, row.RowIndex, startX, endX)
			continue
		}
		candidates = append(candidates, i)
	}

	if len(candidates) == 0 {
		d.logger.Debugf("Рамка Y=%.0f-%.0f, X=%.0f не пересекает ни один ряд", box.Y1, box.Y2, centerX)
		if outOfBounds {
			return unassigned(UnassignedOutOfBounds), nil
		}
		return unassigned(UnassignedNoRow), nil
	}

	chosen := d.rows[candidates[0]]
	if len(candidates) > 1 {
		centerY := box.CenterY()
		best := math.Abs(float64(chosen.YCoordinate) - centerY)
		for _, pos := range candidates[1:] {
			row := d.rows[pos]
			if dist := math.Abs(float64(row.YCoordinate) - centerY); dist < best {
				chosen, best = row, dist
			}
		}
		d.logger.Debugf("Рамка Y=%.0f-%.0f пересекает %d рядов, выбран ряд %d",
			box.Y1, box.Y2, len(candidates), chosen.RowIndex)
	}

	return Assignment{
		Status:     Assigned,
		RowIndex:   chosen.RowIndex,
		RowY:       chosen.YCoordinate,
		Candidates: len(candidates),
	}, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
