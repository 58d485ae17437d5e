package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/verletsim/internal/sim"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func sampleResult() *sim.Result {
	return &sim.Result{
		Steps: 3,
		Samples: []sim.Sample{
			{Time: 1.0 / 60, Objects: 1, KineticEnergy: 12.5, Contacts: 0, MaxOverlap: 0},
			{Time: 2.0 / 60, Objects: 2, KineticEnergy: 20.25, Contacts: 2, MaxOverlap: 0.5},
		},
		Frames: []sim.Frame{
			{Time: 0.05, CenterX: 400, CenterY: 400, Boundary: 390, Particles: []sim.ParticleSnapshot{
				{X: 400, Y: 410.5, Radius: 5, Color: 0xff8000},
			}},
		},
		Metrics: map[string]float64{"kinetic_energy": 16.375},
	}
}

func TestSaveLoad(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Save(RunMetadata{Preset: "default", Seed: 7, StepDt: 1.0 / 60, SubSteps: 8, Objects: 2}, sampleResult())
	require.NoError(t, err)

	meta, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "default", meta.Preset)
	assert.Equal(t, int64(7), meta.Seed)
	assert.Equal(t, 3, meta.Frames)
	assert.InDelta(t, 16.375, meta.Metrics["kinetic_energy"], 1e-12)

	samples, err := s.LoadSamples(id)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 2, samples[1].Objects)
	assert.Equal(t, 2, samples[1].Contacts)
	assert.InDelta(t, 20.25, samples[1].KineticEnergy, 1e-6)
	assert.InDelta(t, 2.0/60, samples[1].Time, 1e-6)

	frames, err := s.LoadFrames(id)
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Frames, frames)
}

func TestLoadFramesMissing(t *testing.T) {
	s := newTestStore(t)
	result := sampleResult()
	result.Frames = nil

	id, err := s.Save(RunMetadata{Preset: "fine"}, result)
	require.NoError(t, err)

	frames, err := s.LoadFrames(id)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestList(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := s.Save(RunMetadata{Preset: "default"}, sampleResult())
	require.NoError(t, err)
	second, err := s.Save(RunMetadata{Preset: "dense"}, sampleResult())
	require.NoError(t, err)

	// stray entries are ignored
	require.NoError(t, os.MkdirAll(filepath.Join(s.baseDir, "junk"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.baseDir, "notes.txt"), []byte("x"), 0644))

	runs, err = s.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
}

func TestListMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestLoadSamplesSkipsMalformed(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Save(RunMetadata{Preset: "default"}, sampleResult())
	require.NoError(t, err)

	f, err := os.OpenFile(s.SamplesPath(id), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("oops,1,2,3,4\n0.5,1\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	samples, err := s.LoadSamples(id)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestLoadUnknownRun(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load("nope")
	assert.Error(t, err)
	_, err = s.LoadSamples("nope")
	assert.Error(t, err)
}
