package calibration

import (
	"errors"
	"fmt"
)

// ErrNoRows в калибровке нет ни одного ряда
var ErrNoRows = errors.New("no parking rows configured in calibration")

// Правила валидации в порядке проверки
const (
	RuleCameraID         = "camera_id"
	RuleRowCount         = "row_count"
	RuleRowFields        = "row_fields"
	RuleRowOrder         = "row_order"
	RuleBounds           = "bounds"
	RuleMinSpaceWidth    = "min_space_width"
	RuleSpaceCoefficient = "space_coefficient"
)

// ValidationError нарушение одного правила калибровки
type ValidationError struct {
	Rule    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid calibration (%s): %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("invalid calibration (%s) %s: %s", e.Rule, e.Field, e.Message)
}

// ConfigurationError калибровка непригодна для анализа.
// Повторять вызов без исправления калибровки бессмысленно.
type ConfigurationError struct {
	CameraID string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for camera %q: %v", e.CameraID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func invalid(rule, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
