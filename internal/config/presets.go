package config

import (
	"sort"

	"github.com/san-kum/mpcdrive/internal/mpc"
)

var Presets = map[string]*Config{
	"straight": {
		Name: "straight", Controller: "mpc", Integrator: "euler", Horizon: DefaultHorizon,
		Vehicle: VehicleConfig{X0: DefaultX0, Y0: DefaultY0, Psi0Deg: DefaultPsi0Deg, Wheelbase: DefaultWheelbase, Dt: DefaultDt},
		Path:    PathConfig{Kind: "straight", Spacing: DefaultSpacing, Length: 40},
	},
	"lane_change": {
		Name: "lane_change", Controller: "mpc", Integrator: "euler", Horizon: DefaultHorizon,
		Vehicle: VehicleConfig{X0: 0, Y0: 0, V0: 3, Wheelbase: DefaultWheelbase, Dt: DefaultDt},
		Path:    PathConfig{Kind: "lane_change", Spacing: DefaultSpacing, Length: 20, Shift: 20, Offset: 3.5},
	},
	"u_turn": {
		Name: "u_turn", Controller: "mpc", Integrator: "euler", Horizon: DefaultHorizon,
		Vehicle: VehicleConfig{X0: 0, Y0: 0, Wheelbase: DefaultWheelbase, Dt: DefaultDt},
		Path:    PathConfig{Kind: "u_turn", Spacing: DefaultSpacing, Length: 20, Radius: 8},
	},
	"parking": {
		Name: "parking", Controller: "mpc", Integrator: "euler", Horizon: DefaultHorizon,
		Vehicle: VehicleConfig{X0: DefaultX0, Y0: DefaultY0, Psi0Deg: DefaultPsi0Deg, Wheelbase: DefaultWheelbase, Dt: DefaultDt},
		Path:    PathConfig{Kind: "parking", Spacing: 0.5, BayX: 30, BayY: 10, Depth: 8},
	},
}

func init() {
	for _, p := range Presets {
		p.MPC = mpc.DefaultConfig()
	}
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
