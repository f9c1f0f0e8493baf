package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// sampleRecord returns a record with every field populated.
func sampleRecord() *domain.Record {
	cfg := domain.Config{
		Time:     domain.TimeOfDay{Hour: 7, Minute: 5},
		Weekdays: domain.NewWeekdaySet(time.Monday, time.Wednesday, time.Sunday),
		SoundRef: "file:///usr/share/sounds/alarm.wav",
	}

	return &domain.Record{
		Config: &cfg,
		Armed: &domain.ArmedAlarm{
			ID:      "5c1b7a4e-0d5e-4a8f-9a52-0c1f3e9d7b11",
			FireAt:  time.Date(2025, time.January, 13, 7, 5, 0, 0, time.UTC),
			ArmedAt: time.Date(2025, time.January, 12, 22, 41, 17, 250, time.UTC),
			ArmedBy: &domain.Actor{Hostname: "kitchen", Username: "o.shokin"},
			Config:  cfg,
		},
		LastFiredAt: time.Date(2025, time.January, 10, 7, 5, 0, 0, time.UTC),
	}
}

// requireRecordEqual compares records by instant rather than by location.
func requireRecordEqual(t *testing.T, want, got *domain.Record) {
	t.Helper()

	require.Equal(t, want.Config, got.Config)
	require.True(t, want.LastFiredAt.Equal(got.LastFiredAt))

	if want.Armed == nil {
		require.Nil(t, got.Armed)

		return
	}

	require.NotNil(t, got.Armed)
	require.Equal(t, want.Armed.ID, got.Armed.ID)
	require.True(t, want.Armed.FireAt.Equal(got.Armed.FireAt))
	require.True(t, want.Armed.ArmedAt.Equal(got.Armed.ArmedAt))
	require.Equal(t, want.Armed.ArmedBy, got.Armed.ArmedBy)
	require.Equal(t, want.Armed.Config, got.Armed.Config)
}

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	record, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, record)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns an equal record.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileRepository(file)
	want := sampleRecord()

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	requireRecordEqual(t, want, got)

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"selected_days"`)
	require.Contains(t, string(contents), `"music_uri"`)
}

// TestFileRepository_DisarmedRecord keeps the configuration after disarming.
func TestFileRepository_DisarmedRecord(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.json"))
	want := sampleRecord()

	require.NoError(t, repo.Save(context.Background(), want))

	want.Armed = nil
	want.Config.Weekdays = 0
	want.Config.SoundRef = ""

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	requireRecordEqual(t, want, got)
}

// TestFileRepository_Empty loads a record with nothing configured.
func TestFileRepository_Empty(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, repo.Save(context.Background(), new(domain.Record)))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, got.Config)
	require.Nil(t, got.Armed)
	require.True(t, got.LastFiredAt.IsZero())
}

// TestFileRepository_Malformed rejects out of range values.
func TestFileRepository_Malformed(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	contents := `{"hour": 7, "minute": 0, "selected_days": [9], "music_uri": ""}`

	require.NoError(t, os.WriteFile(file, []byte(contents), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.ErrorIs(t, err, errMalformedRecord)
}
