package storage

import (
	"math"
	"testing"

	"github.com/san-kum/mbdyn/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times:      []float64{0, 0.01, 0.02},
		States:     [][]float64{{0.5, 0}, {0.49, -0.1}, {0.47, -0.2}},
		Energies:   []float64{1.0, 1.0, 0.99},
		Metrics:    map[string]float64{"energy_drift": 0.01},
		StepsTaken: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("pendulum", 0.01, 0.02, "rk4", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Skeleton != "pendulum" {
		t.Errorf("expected skeleton 'pendulum', got '%s'", meta.Skeleton)
	}
	if meta.Integrator != "rk4" {
		t.Errorf("expected integrator 'rk4', got '%s'", meta.Integrator)
	}
	if meta.Steps != 2 {
		t.Errorf("expected 2 steps, got %d", meta.Steps)
	}
	if meta.Metrics["energy_drift"] != 0.01 {
		t.Errorf("expected metric 0.01, got %f", meta.Metrics["energy_drift"])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if _, err := st.Save("pendulum", 0.01, 0.02, "rk4", sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(t.TempDir() + "/never_created")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreLoadStates(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("pendulum", 0.01, 0.02, "rk4", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("expected 3 samples, got %d states and %d times", len(states), len(times))
	}

	// Each row carries the state plus the trailing energy column.
	if len(states[0]) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(states[0]))
	}
	if math.Abs(states[1][0]-0.49) > 1e-9 {
		t.Errorf("state[1][0]: got %.6f, expected 0.490000", states[1][0])
	}
	if math.Abs(states[2][2]-0.99) > 1e-9 {
		t.Errorf("energy column: got %.6f, expected 0.990000", states[2][2])
	}
	if math.Abs(times[2]-0.02) > 1e-9 {
		t.Errorf("times[2]: got %.6f, expected 0.020000", times[2])
	}
}

func TestStoreLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("no_such_run"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, _, err := st.LoadStates("no_such_run"); err == nil {
		t.Error("expected error for missing states")
	}
}
