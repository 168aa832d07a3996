package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"parking-detector-go/internal/repository"
	"parking-detector-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultService(t *testing.T) {
	t.Parallel()
	f := newFrameFixture(t)
	results := NewResultService(f.sessions, quietLogger())
	ctx := context.Background()

	f.detector.set(box(100, 450, 250, 550))
	for _, id := range []string{"old", "new", "running"} {
		_, err := f.svc.UploadFrame(ctx, id, "", "f.jpg", []byte(id))
		require.NoError(t, err)
	}
	_, err := f.svc.CompleteSession("old")
	require.NoError(t, err)
	_, err = f.svc.CompleteSession("new")
	require.NoError(t, err)

	t.Run("unknown session", func(t *testing.T) {
		_, err := results.GetResult("missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("result without analysis omits totals", func(t *testing.T) {
		result, err := results.GetResult("running")
		require.NoError(t, err)
		assert.Nil(t, result.TotalMotorcycles)
		assert.Nil(t, result.EmptySpacesPerRow)
		require.NotNil(t, result.BestFrame)
		assert.Equal(t, 1, result.BestFrame.DetectionCount)
	})

	t.Run("best frame image path", func(t *testing.T) {
		path, err := results.BestFrameImagePath("running")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("running"), data)

		require.NoError(t, os.Remove(path))
		_, err = results.BestFrameImagePath("running")
		assert.True(t, errors.Is(err, ErrNoBestFrame))
	})

	t.Run("latest lists completed sessions newest first", func(t *testing.T) {
		latest, err := results.Latest(0, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, latest.Total)
		require.Len(t, latest.Sessions, 2)
		assert.Equal(t, "new", latest.Sessions[0].SessionID)
		assert.Equal(t, "old", latest.Sessions[1].SessionID)
		assert.False(t, latest.Sessions[0].HasParkingAnalysis)

		page, err := results.Latest(1, 1)
		require.NoError(t, err)
		require.Len(t, page.Sessions, 1)
		assert.Equal(t, "old", page.Sessions[0].SessionID)
	})

	t.Run("live returns latest active session", func(t *testing.T) {
		live, err := results.Live()
		require.NoError(t, err)
		assert.Equal(t, "running", live.SessionID)
	})
}

func TestResultServiceLiveWithoutActiveSession(t *testing.T) {
	t.Parallel()
	_, err := NewResultService(newFakeSessionRepo(), quietLogger()).Live()
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStatsService(t *testing.T) {
	t.Parallel()
	f := newFrameFixture(t)
	ctx := context.Background()

	f.detector.set(box(0, 0, 10, 10), box(20, 0, 30, 10))
	_, err := f.svc.UploadFrame(ctx, "a", "", "f.jpg", []byte("a"))
	require.NoError(t, err)
	f.detector.set(box(0, 0, 10, 10))
	_, err = f.svc.UploadFrame(ctx, "b", "", "f.jpg", []byte("b"))
	require.NoError(t, err)
	_, err = f.svc.CompleteSession("a")
	require.NoError(t, err)

	stats, err := NewStatsService(f.sessions, f.detector, nil, quietLogger()).Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, int64(1), stats.ActiveSessions)
	assert.Equal(t, int64(1), stats.CompletedSessions)
	assert.Equal(t, int64(3), stats.TotalDetections)
}

func TestCheckHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		detector *fakeDetector
		dbErr    error
		want     string
	}{
		{"all healthy", &fakeDetector{}, nil, "healthy"},
		{"database down", &fakeDetector{}, errors.New("no db"), "unhealthy"},
		{"detector down", &fakeDetector{err: errors.New("refused")}, nil, "unhealthy"},
		{"detector reports unhealthy", &fakeDetector{health: &models.HealthResponse{Status: "unhealthy"}}, nil, "unhealthy"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dbErr := tt.dbErr
			svc := NewStatsService(newFakeSessionRepo(), tt.detector, func() error { return dbErr }, quietLogger())
			health := svc.CheckHealth(context.Background())
			assert.Equal(t, tt.want, health.Status)
			assert.Equal(t, Version, health.Version)
		})
	}
}
