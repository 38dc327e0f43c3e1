package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "outcome-trader/internal/errors"
	"outcome-trader/internal/models"
)

func TestLoadCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []models.Tick{
		{Timestamp: start, Price: models.MustPrice(0.50)},
		{Timestamp: start.Add(time.Minute), Price: models.MustPrice(0.45)},
		{Timestamp: start.Add(2 * time.Minute), Price: models.MustPrice(0.4321)},
	}

	require.NoError(t, WriteCSV(path, ticks))

	loaded, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(ticks))
	for i := range ticks {
		assert.True(t, loaded[i].Timestamp.Equal(ticks[i].Timestamp))
		assert.True(t, loaded[i].Price.Equal(ticks[i].Price))
	}
}

func TestLoadCSVSortsByTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	csv := "timestamp,price\n" +
		"2025-01-01T00:02:00Z,0.40\n" +
		"2025-01-01T00:00:00Z,0.50\n" +
		"2025-01-01T00:01:00Z,0.45\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	ticks, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, ticks, 3)
	assert.True(t, ticks[0].Price.Equal(models.MustPrice(0.50)))
	assert.True(t, ticks[2].Price.Equal(models.MustPrice(0.40)))
}

func TestLoadCSVRejectsBadRows(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ticks.csv")
		require.NoError(t, os.WriteFile(path, []byte("timestamp,price\n"), 0644))
		_, err := LoadCSV(path)
		assert.ErrorIs(t, err, apperrors.ErrEmptyTickSeries)
	})

	t.Run("out of range price", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ticks.csv")
		require.NoError(t, os.WriteFile(path,
			[]byte("timestamp,price\n2025-01-01T00:00:00Z,1.50\n"), 0644))
		_, err := LoadCSV(path)
		assert.Error(t, err)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ticks.csv")
		require.NoError(t, os.WriteFile(path,
			[]byte("timestamp,price\nyesterday,0.50\n"), 0644))
		_, err := LoadCSV(path)
		assert.Error(t, err)
	})
}

func TestSyntheticIsDeterministic(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Ticks = 500

	a := Synthetic(cfg)
	b := Synthetic(cfg)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].Price.Equal(b[i].Price), "tick %d diverged", i)
	}

	cfg.Seed = 2
	c := Synthetic(cfg)
	diverged := false
	for i := range a {
		if !a[i].Price.Equal(c[i].Price) {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "different seeds should produce different walks")
}

func TestSyntheticStaysInBounds(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Ticks = 2000
	cfg.StepBps = 500 // violent walk to stress the clamp

	for _, tick := range Synthetic(cfg) {
		f := tick.Price.Float64()
		assert.GreaterOrEqual(t, f, 0.01)
		assert.LessOrEqual(t, f, 0.99)
	}
}

func TestRamp(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := Ramp(start, time.Minute, 5, 0.50, 0.15, 0.40)
	require.Len(t, ticks, 10)

	// First leg ends at 0.15, second at 0.40.
	assert.True(t, ticks[4].Price.Equal(models.MustPrice(0.15)))
	assert.True(t, ticks[9].Price.Equal(models.MustPrice(0.40)))

	for i := 1; i < len(ticks); i++ {
		assert.True(t, ticks[i].Timestamp.After(ticks[i-1].Timestamp))
	}
}
