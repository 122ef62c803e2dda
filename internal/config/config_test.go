package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/mpc"
	"go.uber.org/multierr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Vehicle.X0 != 10 || cfg.Vehicle.Y0 != 50 || cfg.Vehicle.Psi0Deg != -90 {
		t.Errorf("unexpected start pose %+v", cfg.Vehicle)
	}
	if cfg.Vehicle.Wheelbase != 4 || cfg.Vehicle.Dt != 0.2 {
		t.Errorf("unexpected vehicle %+v", cfg.Vehicle)
	}
	if cfg.Horizon != 10 {
		t.Errorf("expected horizon 10, got %d", cfg.Horizon)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("parking")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Path.Kind != "parking" {
		t.Errorf("expected parking path, got %s", cfg.Path.Kind)
	}
	if cfg.MPC.Method == "" {
		t.Error("preset should carry MPC defaults")
	}

	cfg.Horizon = 99
	if Presets["parking"].Horizon == 99 {
		t.Error("GetPreset must return a copy")
	}

	if GetPreset("nope") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != 4 {
		t.Fatalf("expected 4 presets, got %v", names)
	}
	if names[0] != "lane_change" || names[3] != "u_turn" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizon = 0
	cfg.Vehicle.Dt = 0
	cfg.Path.Kind = "file"
	cfg.MPC.MaxAccel = -1

	err := cfg.Validate()
	if !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("expected 4 errors, got %d: %v", n, err)
	}
}

func TestSaveLoad(t *testing.T) {
	name := filepath.Join(t.TempDir(), "run.yaml")

	cfg := GetPreset("lane_change")
	cfg.MPC.Budget = 100 * time.Millisecond
	cfg.MPC.FailurePolicy = mpc.PolicyStrict
	if err := Save(name, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(name)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "bad.yaml")
	cfg := DefaultConfig()
	cfg.Vehicle.Wheelbase = 0
	if err := Save(name, cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(name); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadIntoKeepsUnsetFields(t *testing.T) {
	name := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(name, []byte("horizon: 4\nmpc:\n  warm_start: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("parking")
	if err := LoadInto(name, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Horizon != 4 || !cfg.MPC.WarmStart {
		t.Errorf("file values not applied: horizon=%d warm_start=%v", cfg.Horizon, cfg.MPC.WarmStart)
	}
	if cfg.Path.Kind != "parking" || cfg.Path.BayX != 30 {
		t.Errorf("preset path lost: %+v", cfg.Path)
	}
	if cfg.MPC.Method != "lbfgs" {
		t.Errorf("unset mpc fields should survive, method=%q", cfg.MPC.Method)
	}
}
