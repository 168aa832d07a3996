package calibration

// Значения по умолчанию и пределы калибровки
const (
	MaxRows               = 10
	DefaultRowStartX      = 0
	DefaultRowEndX        = 1920
	MinSpaceWidthLower    = 10.0
	MinSpaceWidthUpper    = 500.0
	SpaceCoefficientLower = 0.1
	SpaceCoefficientUpper = 1.0
)

// Row линия одного ряда парковки.
// Ряд 0 ближе всего к камере (наибольший Y), дальние ряды имеют меньший Y.
type Row struct {
	RowIndex    int
	YCoordinate int
	Label       string
	StartX      *int // nil - используется глобальная граница
	EndX        *int // nil - используется глобальная граница
}

// Calibration геометрическая модель рядов одной камеры.
// Экземпляр не изменяется после валидации.
type Calibration struct {
	CameraID         string
	Rows             []Row
	MinSpaceWidth    float64
	SpaceCoefficient float64
	RowStartX        int
	RowEndX          int
}

// Bounds возвращает эффективные горизонтальные границы ряда
func (c *Calibration) Bounds(row Row) (int, int) {
	startX := c.RowStartX
	if row.StartX != nil {
		startX = *row.StartX
	}
	endX := c.RowEndX
	if row.EndX != nil {
		endX = *row.EndX
	}
	return startX, endX
}

// RowByIndex ищет ряд по row_index
func (c *Calibration) RowByIndex(rowIndex int) (Row, bool) {
	for _, row := range c.Rows {
		if row.RowIndex == rowIndex {
			return row, true
		}
	}
	return Row{}, false
}

// Clone возвращает глубокую копию калибровки
func (c *Calibration) Clone() *Calibration {
	clone := *c
	clone.Rows = make([]Row, len(c.Rows))
	for i, row := range c.Rows {
		clone.Rows[i] = row
		if row.StartX != nil {
			v := *row.StartX
			clone.Rows[i].StartX = &v
		}
		if row.EndX != nil {
			v := *row.EndX
			clone.Rows[i].EndX = &v
		}
	}
	return &clone
}
