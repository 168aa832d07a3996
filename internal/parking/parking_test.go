package parking

import (
	"testing"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// twoRowCalibration ряд 0 на Y=500 и ряд 1 на Y=300, X 0..1920
func twoRowCalibration() *calibration.Calibration {
	return &calibration.Calibration{
		CameraID: "cam-1",
		Rows: []calibration.Row{
			{RowIndex: 0, YCoordinate: 500, Label: "Row 1"},
			{RowIndex: 1, YCoordinate: 300, Label: "Row 2"},
		},
		MinSpaceWidth:    150,
		SpaceCoefficient: 0.8,
		RowStartX:        0,
		RowEndX:          1920,
	}
}

func oneRowCalibration() *calibration.Calibration {
	cal := twoRowCalibration()
	cal.Rows = cal.Rows[:1]
	return cal
}

func box(x1, y1, x2, y2 float64) models.BoundingBox {
	return models.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2, Confidence: 0.9, ClassName: "motor"}
}

func TestAssignToRow(t *testing.T) {
	t.Parallel()

	t.Run("assigns box crossed by a single row line", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		a, err := d.AssignToRow(box(100, 450, 250, 550))
		require.NoError(t, err)
		assert.True(t, a.IsAssigned())
		assert.Equal(t, 0, a.RowIndex)
		assert.Equal(t, 500, a.RowY)
		assert.Equal(t, 1, a.Candidates)
	})

	t.Run("row line on box edge counts as intersection", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		a, err := d.AssignToRow(box(100, 300, 250, 400))
		require.NoError(t, err)
		assert.Equal(t, Assigned, a.Status)
		assert.Equal(t, 1, a.RowIndex)
	})

	t.Run("box between row lines is unassigned", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		a, err := d.AssignToRow(box(100, 350, 250, 450))
		require.NoError(t, err)
		assert.False(t, a.IsAssigned())
		assert.Equal(t, UnassignedNoRow, a.Status)
		assert.Equal(t, -1, a.RowIndex)
		assert.Equal(t, -1, a.RowY)
	})

	t.Run("degenerate vertical extent is rejected", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		for _, b := range []models.BoundingBox{
			box(100, -10, 250, 550),
			box(100, 450, 250, -1),
			box(100, 550, 250, 450),
			box(100, 500, 250, 500),
		} {
			a, err := d.AssignToRow(b)
			require.NoError(t, err)
			assert.Equal(t, UnassignedInvalidBox, a.Status, "box %+v", b)
		}
	})

	t.Run("center outside row bounds is unassigned", func(t *testing.T) {
		t.Parallel()
		cal := twoRowCalibration()
		cal.Rows[0].StartX = intPtr(400)
		cal.Rows[0].EndX = intPtr(1500)
		d := NewDetector(cal, nil)

		a, err := d.AssignToRow(box(100, 450, 250, 550))
		require.NoError(t, err)
		assert.Equal(t, UnassignedOutOfBounds, a.Status)

		a, err = d.AssignToRow(box(350, 450, 500, 550))
		require.NoError(t, err)
		assert.Equal(t, Assigned, a.Status, "center 425 lies inside per-row bounds")
	})

	t.Run("tall box picks row closest to vertical center", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		// центр 460: до 500 расстояние 40, до 300 - 160
		a, err := d.AssignToRow(box(100, 280, 250, 640))
		require.NoError(t, err)
		assert.Equal(t, 0, a.RowIndex)
		assert.Equal(t, 2, a.Candidates)

		// центр 380: до 300 расстояние 80, до 500 - 120
		a, err = d.AssignToRow(box(100, 240, 250, 520))
		require.NoError(t, err)
		assert.Equal(t, 1, a.RowIndex)
		assert.Equal(t, 300, a.RowY)
	})

	t.Run("equidistant rows resolve to lowest row index", func(t *testing.T) {
		t.Parallel()
		cal := &calibration.Calibration{
			CameraID: "cam-tie",
			Rows: []calibration.Row{
				{RowIndex: 0, YCoordinate: 350},
				{RowIndex: 1, YCoordinate: 250},
			},
			MinSpaceWidth:    150,
			SpaceCoefficient: 0.8,
			RowEndX:          1920,
		}
		d := NewDetector(cal, nil)

		a, err := d.AssignToRow(box(100, 200, 250, 400))
		require.NoError(t, err)
		assert.Equal(t, 0, a.RowIndex)
		assert.Equal(t, 350, a.RowY)
	})

	t.Run("zero rows is a configuration error", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(&calibration.Calibration{CameraID: "empty", MinSpaceWidth: 150, SpaceCoefficient: 0.8}, nil)

		_, err := d.AssignToRow(box(100, 450, 250, 550))
		require.Error(t, err)
		assert.ErrorIs(t, err, calibration.ErrNoRows)

		var cfgErr *calibration.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "empty", cfgErr.CameraID)
	})
}

func TestExpectedSpace(t *testing.T) {
	t.Parallel()
	d := NewDetector(twoRowCalibration(), nil)

	assert.InDelta(t, 150.0, d.ExpectedSpace(0), 1e-9)
	assert.InDelta(t, 120.0, d.ExpectedSpace(1), 1e-9)
	assert.InDelta(t, 96.0, d.ExpectedSpace(2), 1e-9)

	t.Run("negative index is clamped to zero", func(t *testing.T) {
		assert.InDelta(t, 150.0, d.ExpectedSpace(-3), 1e-9)
	})

	t.Run("underflow falls back to min space width", func(t *testing.T) {
		cal := twoRowCalibration()
		cal.SpaceCoefficient = 0.1
		d := NewDetector(cal, nil)
		assert.Equal(t, 150.0, d.ExpectedSpace(1000))
	})

	t.Run("absurdly large value falls back to min space width", func(t *testing.T) {
		cal := twoRowCalibration()
		cal.SpaceCoefficient = 2
		d := NewDetector(cal, nil)
		assert.Equal(t, 150.0, d.ExpectedSpace(20))
	})
}

func TestFindGaps(t *testing.T) {
	t.Parallel()

	t.Run("empty row yields one full-row space", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, nil)
		require.Len(t, gaps.Spaces, 1)
		s := gaps.Spaces[0]
		assert.Equal(t, "row0_full", s.SpaceID)
		assert.Equal(t, 0, s.X1)
		assert.Equal(t, 1920, s.X2)
		assert.Equal(t, 1920.0, s.Width)
		assert.True(t, s.CanFitMotorcycle)
		assert.Equal(t, 12, s.MotorcycleCapacity)
		assert.Equal(t, 450, s.Y1)
		assert.Equal(t, 550, s.Y2)
	})

	t.Run("empty row narrower than expected yields nothing", func(t *testing.T) {
		t.Parallel()
		cal := oneRowCalibration()
		cal.RowEndX = 100
		d := NewDetector(cal, nil)

		gaps := d.FindGaps(0, nil)
		assert.Empty(t, gaps.Spaces)
	})

	t.Run("gap between two detections", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{
			box(1700, 450, 1850, 550),
			box(100, 450, 250, 550),
		})
		require.Len(t, gaps.Spaces, 1)
		s := gaps.Spaces[0]
		assert.Equal(t, "row0_space0", s.SpaceID)
		assert.Equal(t, 250, s.X1)
		assert.Equal(t, 1700, s.X2)
		assert.Equal(t, 1450.0, s.Width)
		assert.Equal(t, 9, s.MotorcycleCapacity)
		assert.Equal(t, 150.0, gaps.Expected)
	})

	t.Run("vertical extent follows mean detection height", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{
			box(100, 460, 250, 540), // 80
			box(800, 440, 950, 560), // 120
		})
		require.NotEmpty(t, gaps.Spaces)
		for _, s := range gaps.Spaces {
			assert.Equal(t, 450, s.Y1)
			assert.Equal(t, 550, s.Y2)
		}
	})

	t.Run("threshold is inclusive in perspective row", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		gaps := d.FindGaps(1, []models.BoundingBox{
			box(0, 250, 100, 350),
			box(220, 250, 320, 350),
			box(420, 250, 540, 350), // промежуток 100 < 120
			box(660, 250, 1920, 350),
		})
		require.Len(t, gaps.Spaces, 2)
		assert.Equal(t, "row1_space0", gaps.Spaces[0].SpaceID)
		assert.Equal(t, 120.0, gaps.Spaces[0].Width)
		assert.Equal(t, 1, gaps.Spaces[0].MotorcycleCapacity)
		assert.Equal(t, "row1_space2", gaps.Spaces[1].SpaceID)
	})

	t.Run("gap just below threshold is not emitted", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		gaps := d.FindGaps(1, []models.BoundingBox{
			box(0, 250, 100, 350),
			box(219.9, 250, 1920, 350),
		})
		assert.Empty(t, gaps.Spaces)
	})

	t.Run("fractional left edge below threshold is not emitted", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		// 1920 - 1800.1 = 119.9 < 120
		gaps := d.FindGaps(1, []models.BoundingBox{box(0, 250, 1800.1, 350)})
		assert.Empty(t, gaps.Spaces)

		// 220 - 100.1 = 119.9 < 120
		gaps = d.FindGaps(1, []models.BoundingBox{
			box(0, 250, 100.1, 350),
			box(220, 250, 1920, 350),
		})
		assert.Empty(t, gaps.Spaces)
	})

	t.Run("fractional edges are rounded into the gap", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(twoRowCalibration(), nil)

		gaps := d.FindGaps(1, []models.BoundingBox{
			box(0, 250, 100.5, 350),
			box(230.7, 250, 1920, 350),
		})
		require.Len(t, gaps.Spaces, 1)
		s := gaps.Spaces[0]
		assert.Equal(t, "row1_space0", s.SpaceID)
		assert.Equal(t, 101, s.X1)
		assert.Equal(t, 230, s.X2)
		assert.Equal(t, 129.0, s.Width)
		assert.Equal(t, 1, s.MotorcycleCapacity)

		// 120.2 в дробных пикселях, но внутри промежутка помещается только 119 целых
		gaps = d.FindGaps(1, []models.BoundingBox{
			box(0, 250, 100.4, 350),
			box(220.6, 250, 1920, 350),
		})
		assert.Empty(t, gaps.Spaces)
	})

	t.Run("fractional end gap keeps integer width identity", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{box(150.6, 450, 1500.2, 550)})
		require.Len(t, gaps.Spaces, 2)
		start, end := gaps.Spaces[0], gaps.Spaces[1]
		assert.Equal(t, "row0_start", start.SpaceID)
		assert.Equal(t, 0, start.X1)
		assert.Equal(t, 150, start.X2)
		assert.Equal(t, 150.0, start.Width)
		assert.Equal(t, "row0_end", end.SpaceID)
		assert.Equal(t, 1501, end.X1)
		assert.Equal(t, 1920, end.X2)
		assert.Equal(t, 419.0, end.Width)
		assert.Equal(t, 2, end.MotorcycleCapacity)
	})

	t.Run("single detection produces only edge spaces", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{box(900, 450, 1050, 550)})
		require.Len(t, gaps.Spaces, 2)
		assert.Equal(t, "row0_start", gaps.Spaces[0].SpaceID)
		assert.Equal(t, 0, gaps.Spaces[0].X1)
		assert.Equal(t, 900, gaps.Spaces[0].X2)
		assert.Equal(t, 6, gaps.Spaces[0].MotorcycleCapacity)
		assert.Equal(t, "row0_end", gaps.Spaces[1].SpaceID)
		assert.Equal(t, 1050, gaps.Spaces[1].X1)
		assert.Equal(t, 1920, gaps.Spaces[1].X2)
		assert.Equal(t, 5, gaps.Spaces[1].MotorcycleCapacity)
	})

	t.Run("overlapping detections are reported and skipped", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{
			box(0, 450, 300, 550),
			box(200, 450, 400, 550),
			box(700, 450, 1920, 550),
		})
		require.Len(t, gaps.Spaces, 1)
		assert.Equal(t, "row0_space1", gaps.Spaces[0].SpaceID)
		require.Len(t, gaps.Skipped, 1)
		assert.Equal(t, SkipOverlap, gaps.Skipped[0].Reason)
		assert.Equal(t, 0, gaps.Skipped[0].Position)
	})

	t.Run("invalid detections are filtered with a reason", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{
			box(-5, 450, 100, 550),
			box(500, 450, 650, 550),
		})
		require.Len(t, gaps.Skipped, 1)
		assert.Equal(t, SkipInvalidDetection, gaps.Skipped[0].Reason)
		assert.Equal(t, 0, gaps.Skipped[0].Position)
		require.Len(t, gaps.Spaces, 2)
		assert.Equal(t, "row0_start", gaps.Spaces[0].SpaceID)
	})

	t.Run("only invalid detections yield no spaces", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(0, []models.BoundingBox{box(300, 450, 200, 550)})
		assert.Empty(t, gaps.Spaces)
		require.Len(t, gaps.Skipped, 1)
	})

	t.Run("unknown row is reported", func(t *testing.T) {
		t.Parallel()
		d := NewDetector(oneRowCalibration(), nil)

		gaps := d.FindGaps(7, nil)
		assert.Empty(t, gaps.Spaces)
		require.Len(t, gaps.Skipped, 1)
		assert.Equal(t, SkipUnknownRow, gaps.Skipped[0].Reason)
	})

	t.Run("per-row bounds override global bounds", func(t *testing.T) {
		t.Parallel()
		cal := oneRowCalibration()
		cal.Rows[0].StartX = intPtr(200)
		cal.Rows[0].EndX = intPtr(800)
		d := NewDetector(cal, nil)

		gaps := d.FindGaps(0, nil)
		require.Len(t, gaps.Spaces, 1)
		assert.Equal(t, 200, gaps.Spaces[0].X1)
		assert.Equal(t, 800, gaps.Spaces[0].X2)
		assert.Equal(t, 4, gaps.Spaces[0].MotorcycleCapacity)
	})
}

func TestGapProperties(t *testing.T) {
	t.Parallel()
	d := NewDetector(twoRowCalibration(), nil)

	inputs := [][]models.BoundingBox{
		nil,
		{box(10.5, 450, 90.2, 550)},
		{box(100, 450, 250, 550), box(433.7, 450, 512.9, 550), box(1000.1, 470, 1100.8, 530)},
		{box(0, 250, 100, 350), box(50, 250, 150, 350), box(600.6, 250, 700.3, 350)},
	}

	for _, rowIndex := range []int{0, 1} {
		for _, dets := range inputs {
			gaps := d.FindGaps(rowIndex, dets)
			expected := d.ExpectedSpace(rowIndex)
			for _, s := range gaps.Spaces {
				assert.Equal(t, float64(s.X2-s.X1), s.Width, "width identity for %s", s.SpaceID)
				assert.GreaterOrEqual(t, s.Width, expected)
				assert.True(t, s.CanFitMotorcycle)
				assert.Equal(t, int(s.Width/expected), s.MotorcycleCapacity)
				assert.GreaterOrEqual(t, s.X1, 0)
				assert.LessOrEqual(t, s.X2, 1920)
			}
		}
	}
}

func TestOccupancyRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, OccupancyRate(0, 0))
	assert.Equal(t, 0.0, OccupancyRate(0, 5))
	assert.Equal(t, 100.0, OccupancyRate(4, 0))
	assert.Equal(t, 66.67, OccupancyRate(2, 1))
	assert.Equal(t, 33.33, OccupancyRate(1, 2))
	assert.Equal(t, 75.0, OccupancyRate(15, 5))
}
