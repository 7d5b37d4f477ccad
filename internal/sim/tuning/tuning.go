package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz            int `yaml:"tick_rate_hz"`
	DecisionIntervalTicks int `yaml:"decision_interval_ticks"`
	MoveIntervalTicks     int `yaml:"move_interval_ticks"`
	MaxCatchUpTicks       int `yaml:"max_catch_up_ticks"`

	Map         Map         `yaml:"map"`
	Wander      Wander      `yaml:"wander"`
	Pathfinding Pathfinding `yaml:"pathfinding"`
	Spawn       Spawn       `yaml:"spawn"`
}

type Map struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	Depth    int `yaml:"depth"`
	SurfaceZ int `yaml:"surface_z"`
}

type Wander struct {
	Radius        int `yaml:"radius"`
	MaxIterations int `yaml:"max_iterations"`
}

type Pathfinding struct {
	Workers       int `yaml:"workers"`
	MaxIterations int `yaml:"max_iterations"`
}

type Spawn struct {
	Dwarves int `yaml:"dwarves"`
	Cats    int `yaml:"cats"`
	Dogs    int `yaml:"dogs"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:            20,
		DecisionIntervalTicks: 10,
		MoveIntervalTicks:     3,
		MaxCatchUpTicks:       5,
		Map:                   Map{Width: 128, Height: 128, Depth: 64, SurfaceZ: 40},
		Wander:                Wander{Radius: 3, MaxIterations: 200},
		Pathfinding:           Pathfinding{Workers: 4, MaxIterations: 10000},
		Spawn:                 Spawn{Dwarves: 7, Cats: 2, Dogs: 1},
	}
}

// Load reads a yaml file over Defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %d", name, v))
		}
	}
	positive("tick_rate_hz", t.TickRateHz)
	positive("decision_interval_ticks", t.DecisionIntervalTicks)
	positive("move_interval_ticks", t.MoveIntervalTicks)
	positive("max_catch_up_ticks", t.MaxCatchUpTicks)
	positive("map.width", t.Map.Width)
	positive("map.height", t.Map.Height)
	positive("map.depth", t.Map.Depth)
	positive("wander.radius", t.Wander.Radius)
	positive("wander.max_iterations", t.Wander.MaxIterations)
	positive("pathfinding.workers", t.Pathfinding.Workers)
	positive("pathfinding.max_iterations", t.Pathfinding.MaxIterations)
	if t.Map.SurfaceZ < 0 || t.Map.SurfaceZ >= t.Map.Depth {
		errs = append(errs, fmt.Errorf("map.surface_z %d outside depth %d", t.Map.SurfaceZ, t.Map.Depth))
	}
	if t.Spawn.Dwarves < 0 || t.Spawn.Cats < 0 || t.Spawn.Dogs < 0 {
		errs = append(errs, errors.New("spawn counts must be >= 0"))
	}
	return errors.Join(errs...)
}
