package calibration

import (
	"fmt"
	"math"
	"strings"

	"parking-detector-go/pkg/models"
)

// Validator проверяет и нормализует калибровку.
// maxRows может только ужесточить верхний предел в 10 рядов.
type Validator struct {
	maxRows int
}

// NewValidator создает валидатор с ограничением на число рядов
func NewValidator(maxRows int) *Validator {
	if maxRows <= 0 || maxRows > MaxRows {
		maxRows = MaxRows
	}
	return &Validator{maxRows: maxRows}
}

// Validate проверяет запрос с пределами по умолчанию
func Validate(req models.CalibrationRequest) (*Calibration, error) {
	return NewValidator(MaxRows).Validate(req)
}

// Validate возвращает нормализованную калибровку или *ValidationError.
// Правила проверяются в порядке: число рядов, поля рядов, порядок рядов,
// глобальные границы, min_space_width, space_coefficient.
func (v *Validator) Validate(req models.CalibrationRequest) (*Calibration, error) {
	cameraID := strings.TrimSpace(req.CameraID)
	if cameraID == "" {
		return nil, invalid(RuleCameraID, "camera_id", "must not be empty")
	}

	// (a) количество рядов
	if len(req.Rows) < 1 || len(req.Rows) > v.maxRows {
		return nil, invalid(RuleRowCount, "rows", "expected 1..%d rows, got %d", v.maxRows, len(req.Rows))
	}

	// (b) поля каждого ряда
	rows := make([]Row, len(req.Rows))
	for i, r := range req.Rows {
		field := fmt.Sprintf("rows[%d]", i)
		if r.RowIndex < 0 {
			return nil, invalid(RuleRowFields, field+".row_index", "must be >= 0, got %d", r.RowIndex)
		}
		if r.YCoordinate < 0 {
			return nil, invalid(RuleRowFields, field+".y_coordinate", "must be >= 0, got %d", r.YCoordinate)
		}
		if r.StartX != nil && *r.StartX < 0 {
			return nil, invalid(RuleRowFields, field+".start_x", "must be >= 0, got %d", *r.StartX)
		}
		if r.EndX != nil && *r.EndX < 0 {
			return nil, invalid(RuleRowFields, field+".end_x", "must be >= 0, got %d", *r.EndX)
		}
		if r.StartX != nil && r.EndX != nil && *r.EndX <= *r.StartX {
			return nil, invalid(RuleRowFields, field+".end_x", "must be greater than start_x (%d <= %d)", *r.EndX, *r.StartX)
		}

		label := strings.TrimSpace(r.Label)
		if label == "" {
			label = fmt.Sprintf("Row %d", r.RowIndex+1)
		}
		rows[i] = Row{
			RowIndex:    r.RowIndex,
			YCoordinate: r.YCoordinate,
			Label:       label,
			StartX:      copyInt(r.StartX),
			EndX:        copyInt(r.EndX),
		}
	}

	// (c) порядок: row_index растет с 0, Y строго убывает
	if rows[0].RowIndex != 0 {
		return nil, invalid(RuleRowOrder, "rows[0].row_index", "first row must have row_index 0, got %d", rows[0].RowIndex)
	}
	for i := 0; i < len(rows)-1; i++ {
		cur, next := rows[i], rows[i+1]
		if next.RowIndex <= cur.RowIndex {
			return nil, invalid(RuleRowOrder, fmt.Sprintf("rows[%d].row_index", i+1),
				"row_index must be strictly ascending (%d after %d)", next.RowIndex, cur.RowIndex)
		}
		if cur.YCoordinate <= next.YCoordinate {
			return nil, invalid(RuleRowOrder, fmt.Sprintf("rows[%d].y_coordinate", i+1),
				"y_coordinate must be strictly descending: row %d has Y=%d, row %d has Y=%d",
				cur.RowIndex, cur.YCoordinate, next.RowIndex, next.YCoordinate)
		}
	}

	// (d) глобальные границы
	startX := DefaultRowStartX
	if req.RowStartX != nil {
		startX = *req.RowStartX
	}
	endX := DefaultRowEndX
	if req.RowEndX != nil {
		endX = *req.RowEndX
	}
	if startX < 0 {
		return nil, invalid(RuleBounds, "row_start_x", "must be >= 0, got %d", startX)
	}
	if endX <= startX {
		return nil, invalid(RuleBounds, "row_end_x", "must be greater than row_start_x (%d <= %d)", endX, startX)
	}

	// границы ряда с учетом глобальных значений по умолчанию
	bounds := &Calibration{RowStartX: startX, RowEndX: endX}
	for i, row := range rows {
		rowStart, rowEnd := bounds.Bounds(row)
		if rowEnd <= rowStart {
			return nil, invalid(RuleBounds, fmt.Sprintf("rows[%d]", i),
				"effective row bounds are empty: start %d, end %d", rowStart, rowEnd)
		}
	}

	// (e) min_space_width
	if math.IsNaN(req.MinSpaceWidth) || req.MinSpaceWidth < MinSpaceWidthLower || req.MinSpaceWidth > MinSpaceWidthUpper {
		return nil, invalid(RuleMinSpaceWidth, "min_space_width", "must be within [%g, %g], got %g",
			MinSpaceWidthLower, MinSpaceWidthUpper, req.MinSpaceWidth)
	}

	// (f) space_coefficient
	if math.IsNaN(req.SpaceCoefficient) || req.SpaceCoefficient < SpaceCoefficientLower || req.SpaceCoefficient > SpaceCoefficientUpper {
		return nil, invalid(RuleSpaceCoefficient, "space_coefficient", "must be within [%g, %g], got %g",
			SpaceCoefficientLower, SpaceCoefficientUpper, req.SpaceCoefficient)
	}

	return &Calibration{
		CameraID:         cameraID,
		Rows:             rows,
		MinSpaceWidth:    req.MinSpaceWidth,
		SpaceCoefficient: req.SpaceCoefficient,
		RowStartX:        startX,
		RowEndX:          endX,
	}, nil
}

// ToRequest преобразует калибровку обратно в форму запроса
func (c *Calibration) ToRequest() models.CalibrationRequest {
	rows := make([]models.CalibrationRowRequest, len(c.Rows))
	for i, row := range c.Rows {
		rows[i] = models.CalibrationRowRequest{
			RowIndex:    row.RowIndex,
			YCoordinate: row.YCoordinate,
			Label:       row.Label,
			StartX:      copyInt(row.StartX),
			EndX:        copyInt(row.EndX),
		}
	}
	startX, endX := c.RowStartX, c.RowEndX
	return models.CalibrationRequest{
		CameraID:         c.CameraID,
		Rows:             rows,
		MinSpaceWidth:    c.MinSpaceWidth,
		SpaceCoefficient: c.SpaceCoefficient,
		RowStartX:        &startX,
		RowEndX:          &endX,
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
