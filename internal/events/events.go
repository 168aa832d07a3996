// Package events публикует результаты анализа парковки во внешние системы.
package events

import (
	"context"
	"encoding/json"
	"time"

	"parking-detector-go/pkg/models"

	"github.com/google/uuid"
)

// AnalysisEvent событие с результатом анализа одного кадра
type AnalysisEvent struct {
	EventID   string                  `json:"event_id"`
	SessionID string                  `json:"session_id"`
	CameraID  string                  `json:"camera_id"`
	FrameID   string                  `json:"frame_id"`
	CreatedAt time.Time               `json:"created_at"`
	Analysis  *models.ParkingAnalysis `json:"analysis"`
}

// NewAnalysisEvent создает событие с новым идентификатором
func NewAnalysisEvent(frameID string, analysis *models.ParkingAnalysis) *AnalysisEvent {
	return &AnalysisEvent{
		EventID:   uuid.New().String(),
		SessionID: analysis.SessionID,
		CameraID:  analysis.CameraID,
		FrameID:   frameID,
		CreatedAt: time.Now().UTC(),
		Analysis:  analysis,
	}
}

// ToJSON сериализует событие
func (e *AnalysisEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AnalysisPublisher публикует события анализа
type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, event *AnalysisEvent) error
	Close()
}

// NoopPublisher используется, когда публикация отключена
type NoopPublisher struct{}

// PublishAnalysis ничего не делает
func (NoopPublisher) PublishAnalysis(context.Context, *AnalysisEvent) error { return nil }

// Close ничего не делает
func (NoopPublisher) Close() {}
