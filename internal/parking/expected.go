package parking

import "math"

// ExpectedSpace ожидаемая минимальная ширина места в ряду с учетом перспективы:
// min_space_width * space_coefficient^row_index.
// Ряд 0 получает min_space_width, дальние ряды меньше. Отрицательный индекс
// считается нулем, неправдоподобный результат заменяется на min_space_width.
func (d *Detector) ExpectedSpace(rowIndex int) float64 {
	if rowIndex < 0 {
		d.logger.Warnf("Некорректный row_index %d, используется 0", rowIndex)
		rowIndex = 0
	}

	if len(d.rows) == 0 {
		d.logger.Warn("Ряды не настроены, используется min_space_width")
		return d.cal.MinSpaceWidth
	}

	expected := d.cal.MinSpaceWidth * math.Pow(d.cal.SpaceCoefficient, float64(rowIndex))
	if math.IsNaN(expected) || expected <= 0 || expected > maxExpectedSpace {
		d.logger.Warnf("Ожидаемая ширина %v для ряда %d вне диапазона, используется min_space_width", expected, rowIndex)
		return d.cal.MinSpaceWidth
	}

	return expected
}
