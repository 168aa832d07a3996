// Package parking ищет свободные места на парковке по калибровке рядов
// и рамкам детектора. Все вычисления чистые: Detector не хранит состояния
// между вызовами и не изменяет входные данные.
package parking

import (
	"io"
	"sort"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	// maxExpectedSpace верхняя граница правдоподобной ожидаемой ширины (пиксели)
	maxExpectedSpace = 10000.0
	// defaultHalfHeight половина высоты места, когда в ряду нет детекций
	defaultHalfHeight = 50.0
)

// Detector детектор свободных мест для одного снимка калибровки
type Detector struct {
	cal    *calibration.Calibration
	rows   []calibration.Row
	logger logrus.FieldLogger

	// beforeRow и beforeFrame вызываются перед обработкой ряда и кадра, если заданы
	beforeRow   func(rowIndex int)
	beforeFrame func(detections []models.BoundingBox)
}

// NewDetector создает детектор. Калибровка копируется, поэтому ее последующие
// изменения вызывающей стороной не влияют на анализ. nil logger отключает логирование.
func NewDetector(cal *calibration.Calibration, logger logrus.FieldLogger) *Detector {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	snapshot := &calibration.Calibration{}
	if cal != nil {
		snapshot = cal.Clone()
	}

	rows := make([]calibration.Row, len(snapshot.Rows))
	copy(rows, snapshot.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RowIndex < rows[j].RowIndex
	})

	return &Detector{
		cal:    snapshot,
		rows:   rows,
		logger: logger.WithField("camera_id", snapshot.CameraID),
	}
}

// Rows возвращает ряды в порядке row_index
func (d *Detector) Rows() []calibration.Row {
	rows := make([]calibration.Row, len(d.rows))
	copy(rows, d.rows)
	return rows
}

// position возвращает позицию ряда в d.rows по row_index
func (d *Detector) position(rowIndex int) (int, bool) {
	for i, row := range d.rows {
		if row.RowIndex == rowIndex {
			return i, true
		}
	}
	return -1, false
}

func (d *Detector) configurationError() error {
	return &calibration.ConfigurationError{
		CameraID: d.cal.CameraID,
		Err:      calibration.ErrNoRows,
	}
}
