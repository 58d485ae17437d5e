package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
)

func writeScenario(t *testing.T, body string) *Scenario {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	return sc
}

func TestRunScenario(t *testing.T) {
	sc := writeScenario(t, `
name: pour
preset: default
seed: 3
steps:
  - action: place
    x: 400
    y: 200
    radius: 6
  - action: spawn
    count: 1
  - action: run
    frames: 10
    emit: true
  - action: velocity
    id: 0
    vx: 300
  - action: run
    frames: 120
`)

	results, err := RunScenario(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("RunScenario failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	tests := []struct {
		idx     int
		action  string
		objects int
	}{
		{0, ActionPlace, 1},
		{1, ActionSpawn, 2},
		{2, ActionRun, 12},
		{3, ActionVelocity, 12},
		{4, ActionRun, 12},
	}
	for _, tt := range tests {
		r := results[tt.idx]
		if r.Action != tt.action || r.Objects != tt.objects {
			t.Errorf("step %d: got %s with %d objects, want %s with %d", tt.idx, r.Action, r.Objects, tt.action, tt.objects)
		}
	}

	last := results[4]
	if last.Escaped != 0 {
		t.Errorf("expected no escaped particles, got %d", last.Escaped)
	}
	if last.Time <= results[2].Time {
		t.Error("time should advance across run steps")
	}
}

func TestPullAndPush(t *testing.T) {
	for _, action := range []string{ActionPull, ActionPush} {
		t.Run(action, func(t *testing.T) {
			sc := &Scenario{
				Preset: "zero_g",
				Steps: []Step{
					{Action: ActionPlace, X: ptr(480), Y: ptr(400), Radius: 5},
					{Action: action, Frames: 5, X: ptr(400), Y: ptr(400)},
				},
			}

			results, err := RunScenario(context.Background(), sc, nil)
			if err != nil {
				t.Fatalf("RunScenario failed: %v", err)
			}
			if results[0].KineticEnergy != 0 {
				t.Errorf("placed particle should start at rest, energy %f", results[0].KineticEnergy)
			}
			if results[1].KineticEnergy <= 0 {
				t.Errorf("%s should set the particle moving", action)
			}
		})
	}
}

func TestRunScenarioErrors(t *testing.T) {
	tests := []struct {
		name    string
		sc      *Scenario
		want    error
		partial int
	}{
		{
			name:    "unknown object",
			sc:      &Scenario{Steps: []Step{{Action: ActionVelocity, ID: 4}}},
			want:    dynamo.ErrUnknownObject,
			partial: 0,
		},
		{
			name: "zero frames",
			sc: &Scenario{Steps: []Step{
				{Action: ActionSpawn},
				{Action: ActionRun},
			}},
			want:    dynamo.ErrParameterBounds,
			partial: 1,
		},
		{
			name:    "bad radius",
			sc:      &Scenario{Steps: []Step{{Action: ActionPlace, Radius: -1}}},
			want:    dynamo.ErrParameterBounds,
			partial: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := RunScenario(context.Background(), tt.sc, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if len(results) != tt.partial {
				t.Errorf("expected %d partial results, got %d", tt.partial, len(results))
			}
		})
	}
}

func TestRunScenarioUnknown(t *testing.T) {
	if _, err := RunScenario(context.Background(), &Scenario{Preset: "nope"}, nil); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := RunScenario(context.Background(), &Scenario{Steps: []Step{{Action: "dance"}}}, nil); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := &Scenario{Steps: []Step{{Action: ActionRun, Frames: 10}}}
	if _, err := RunScenario(ctx, sc, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func ptr(v float64) *float64 { return &v }
