package physics

import (
	"io"

	"gopkg.in/yaml.v3"
)

// SolverConfig is the named, tunable constant group spec.md §6 calls out:
// "Tune these as a named config group; changing them changes behavior
// measurably." Defaults mirror the compatibility-relevant constants in
// spec.md §6 (see DefaultSolverConfig for the values).
type SolverConfig struct {
	LinearSlop            float64 `yaml:"linear_slop"`
	MaxLinearCorrection   float64 `yaml:"max_linear_correction"`
	TimeToSleep           float64 `yaml:"time_to_sleep"`
	SleepLinearTolerance  float64 `yaml:"sleep_linear_tolerance"`
	SleepAngularTolerance float64 `yaml:"sleep_angular_tolerance"` // radians
	VelocityIterations    int     `yaml:"velocity_iterations"`
	PositionIterations    int     `yaml:"position_iterations"`
	WarmStarting          bool    `yaml:"warm_starting"`
	AllowSleep            bool    `yaml:"allow_sleep"`
}

// DefaultSolverConfig returns the spec.md §6 suggested defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		LinearSlop:            0.005,
		MaxLinearCorrection:   0.2,
		TimeToSleep:           0.5,
		SleepLinearTolerance:  0.5,
		SleepAngularTolerance: 2 * (3.14159265358979323846 / 180),
		VelocityIterations:    8,
		PositionIterations:    3,
		WarmStarting:          true,
		AllowSleep:            true,
	}
}

// LoadSolverConfig decodes a YAML solver-tuning document, starting from
// DefaultSolverConfig() so a partial document only overrides the fields it
// names. Kept separate from the JSON scene format (scene.go) so tuning and
// scene content version independently, per SPEC_FULL.md §2.3.
func LoadSolverConfig(r io.Reader) (SolverConfig, error) {
	cfg := DefaultSolverConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return SolverConfig{}, err
	}
	return cfg, nil
}
