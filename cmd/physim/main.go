// Command physim loads a scene file, steps it a fixed number of times, and
// prints the resulting stats and body poses as JSON. It is a thin
// demonstration of the physics package's public seam (SPEC_FULL.md §9), not
// part of the physics core itself.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/undefinedopcode/phys2d"
)

func main() {
	scenePath := flag.String("scene", "", "path to a scene JSON file (required)")
	configPath := flag.String("config", "", "path to a solver-config YAML file (optional)")
	steps := flag.Int("steps", 120, "number of fixed-size steps to run")
	dt := flag.Float64("dt", 1.0/60.0, "step size in seconds")
	verbose := flag.Bool("verbose", false, "log breakage notices and debug notes to stderr")
	flag.Parse()

	if *scenePath == "" {
		fmt.Fprintln(os.Stderr, "physim: -scene is required")
		flag.Usage()
		os.Exit(2)
	}

	sceneFile, err := os.Open(*scenePath)
	if err != nil {
		log.Fatalf("physim: %v", err)
	}
	defer sceneFile.Close()

	space, err := physics.LoadScene(sceneFile)
	if err != nil {
		log.Fatalf("physim: %v", err)
	}

	cfg := physics.DefaultSolverConfig()
	if *configPath != "" {
		cfgFile, err := os.Open(*configPath)
		if err != nil {
			log.Fatalf("physim: %v", err)
		}
		cfg, err = physics.LoadSolverConfig(cfgFile)
		cfgFile.Close()
		if err != nil {
			log.Fatalf("physim: %v", err)
		}
	}
	space.SetConfig(cfg)

	if *verbose {
		space.SetLogger(physics.NewStdLogger("physim", true))
	}

	var stats physics.StepStats
	for i := 0; i < *steps; i++ {
		stats = space.Step(*dt, cfg.VelocityIterations, cfg.PositionIterations, cfg.WarmStarting, cfg.AllowSleep)
	}

	out := result{Stats: stats}
	space.EachBody(func(b *physics.Body) {
		out.Bodies = append(out.Bodies, bodyPose{
			Position:        [2]float64{b.Position()[0], b.Position()[1]},
			Angle:           b.Angle(),
			Velocity:        [2]float64{b.Velocity()[0], b.Velocity()[1]},
			AngularVelocity: b.AngularVelocity(),
			Awake:           b.IsAwake(),
		})
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("physim: %v", err)
	}
}

type bodyPose struct {
	Position        [2]float64 `json:"position"`
	Angle           float64    `json:"angle"`
	Velocity        [2]float64 `json:"velocity"`
	AngularVelocity float64    `json:"angularVelocity"`
	Awake           bool       `json:"awake"`
}

type result struct {
	Stats  physics.StepStats `json:"stats"`
	Bodies []bodyPose        `json:"bodies"`
}
