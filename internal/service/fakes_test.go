package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"parking-detector-go/internal/events"
	"parking-detector-go/internal/model"
	"parking-detector-go/internal/repository"
	"parking-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeCalibrationRepo struct {
	mu    sync.Mutex
	items map[string]model.Calibration
	now   time.Time
}

func newFakeCalibrationRepo() *fakeCalibrationRepo {
	return &fakeCalibrationRepo{
		items: map[string]model.Calibration{},
		now:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeCalibrationRepo) Upsert(cal *model.Calibration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = r.now.Add(time.Minute)
	existing, ok := r.items[cal.CameraID]
	if ok {
		cal.CreatedAt = existing.CreatedAt
	} else {
		cal.CreatedAt = r.now
	}
	cal.UpdatedAt = r.now
	r.items[cal.CameraID] = *cal
	return !ok, nil
}

func (r *fakeCalibrationRepo) GetByCameraID(cameraID string) (*model.Calibration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cal, ok := r.items[cameraID]
	if !ok {
		return nil, fmt.Errorf("calibration for camera %s: %w", cameraID, repository.ErrNotFound)
	}
	return &cal, nil
}

func (r *fakeCalibrationRepo) List(skip, limit int) ([]*model.Calibration, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var result []*model.Calibration
	for i, id := range ids {
		if i < skip || len(result) >= limit {
			continue
		}
		cal := r.items[id]
		result = append(result, &cal)
	}
	return result, int64(len(ids)), nil
}

func (r *fakeCalibrationRepo) Delete(cameraID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[cameraID]; !ok {
		return fmt.Errorf("calibration for camera %s: %w", cameraID, repository.ErrNotFound)
	}
	delete(r.items, cameraID)
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.DetectionSession
	now      time.Time
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: map[string]model.DetectionSession{},
		now:      time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func copySession(s model.DetectionSession) *model.DetectionSession {
	s.Frames = append([]model.Frame(nil), s.Frames...)
	return &s
}

func (r *fakeSessionRepo) GetByID(sessionID string) (*model.DetectionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, repository.ErrNotFound)
	}
	return copySession(s), nil
}

func (r *fakeSessionRepo) SaveFrame(session *model.DetectionSession, frame *model.Frame, keepFrames int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.now = r.now.Add(time.Second)
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now
	}
	session.UpdatedAt = r.now

	frames := append([]model.Frame(nil), r.sessions[session.SessionID].Frames...)
	frame.SessionID = session.SessionID
	frames = append(frames, *frame)
	if keepFrames > 0 && len(frames) > keepFrames {
		frames = frames[len(frames)-keepFrames:]
	}

	stored := *session
	stored.Frames = frames
	r.sessions[session.SessionID] = stored
	return nil
}

func (r *fakeSessionRepo) Complete(sessionID string) (*model.DetectionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, repository.ErrNotFound)
	}
	now := r.now
	s.Status = model.SessionStatusCompleted
	s.CompletedAt = &now
	r.sessions[sessionID] = s
	return copySession(s), nil
}

func (r *fakeSessionRepo) ListCompleted(skip, limit int) ([]*model.DetectionSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var completed []*model.DetectionSession
	for _, s := range r.sessions {
		if s.Status == model.SessionStatusCompleted {
			completed = append(completed, copySession(s))
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})
	total := int64(len(completed))
	if skip >= len(completed) {
		return nil, total, nil
	}
	completed = completed[skip:]
	if len(completed) > limit {
		completed = completed[:limit]
	}
	return completed, total, nil
}

func (r *fakeSessionRepo) LatestActive() (*model.DetectionSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.DetectionSession
	for _, s := range r.sessions {
		if s.Status != model.SessionStatusActive {
			continue
		}
		if latest == nil || s.UpdatedAt.After(latest.UpdatedAt) {
			latest = copySession(s)
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("active session: %w", repository.ErrNotFound)
	}
	return latest, nil
}

func (r *fakeSessionRepo) Stats() (*repository.SessionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.SessionStats{}
	for _, s := range r.sessions {
		stats.Total++
		switch s.Status {
		case model.SessionStatusActive:
			stats.Active++
		case model.SessionStatusCompleted:
			stats.Completed++
		}
		stats.TotalDetections += int64(s.MaxDetectionCount)
	}
	return stats, nil
}

type fakeDetector struct {
	mu         sync.Mutex
	detections []models.BoundingBox
	err        error
	health     *models.HealthResponse
	calls      int
}

func (d *fakeDetector) Detect(_ context.Context, _ string, _ []byte) ([]models.BoundingBox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]models.BoundingBox{}, d.detections...), nil
}

func (d *fakeDetector) CheckHealth(context.Context) (*models.HealthResponse, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.health != nil {
		return d.health, nil
	}
	return &models.HealthResponse{Status: "healthy", ModelLoaded: true}, nil
}

func (d *fakeDetector) set(dets ...models.BoundingBox) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detections = dets
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.AnalysisEvent
	err    error
}

func (p *recordingPublisher) PublishAnalysis(_ context.Context, event *events.AnalysisEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func box(x1, y1, x2, y2 float64) models.BoundingBox {
	return models.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: 0.9, ClassName: "motorcycle"}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// oneRowRequest ряд Y=500 во всю ширину кадра
func oneRowRequest(cameraID string) models.CalibrationRequest {
	return models.CalibrationRequest{
		CameraID: cameraID,
		Rows: []models.CalibrationRowRequest{
			{RowIndex: 0, YCoordinate: 500, Label: "Front"},
		},
		MinSpaceWidth:    150,
		SpaceCoefficient: 0.8,
	}
}
