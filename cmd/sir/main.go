package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"path/filepath"

	"github.com/petemounce/sir"
	"gonum.org/v1/gonum/mat"
)

const defaultScenario = "~~unset~~"

var (
	scenario string
	seed     uint64
	steps    int
	jacobian bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file (defaults are used if unset)")
	flag.Uint64Var(&seed, "seed", 0, "overrides general.seed when non zero")
	flag.IntVar(&steps, "steps", -1, "overrides general.steps when non negative")
	flag.BoolVar(&jacobian, "jacobian", false, "also estimate the Jacobian of one step from the initial state")
}

func main() {
	flag.Parse()
	conf := sir.DefaultConfig()
	if scenario != defaultScenario {
		var err error
		conf, err = sir.LoadConfig(filepath.Dir(scenario), filepath.Base(scenario))
		if err != nil {
			log.Fatalf("could not load scenario: %s", err)
		}
	}
	if seed != 0 {
		conf.Seed = seed
	}
	if steps >= 0 {
		conf.Steps = steps
	}
	log.Printf("[info] %s", conf)

	src := rand.NewPCG(conf.Seed, conf.Seed^0x9e3779b97f4a7c15)

	if jacobian {
		model := sir.NewAbstractModel(conf.Initial[0], conf.Initial[1], conf.Initial[2], conf)
		lin, err := model.Linearize(src)
		if err != nil {
			log.Fatalf("could not linearize: %s", err)
		}
		fmt.Printf("in  = %v\nout = %v\nJ =\n%v\n", lin.In, lin.Out, mat.Formatted(lin.Jacobian, mat.Prefix("    "), mat.Squeeze()))
	}

	snaps, err := sir.NewSimulation(conf).Run(src)
	if err != nil {
		log.Fatalf("simulation failed: %s", err)
	}
	last := snaps[len(snaps)-1]
	fmt.Printf("final aggregate = %.4f\nfinal mean-field = %.4f\n", last.Abstract, last.MeanField)
}
