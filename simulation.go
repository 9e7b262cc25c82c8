package sir

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Simulation runs an AbstractModel over several steps alongside its mean-field reference.
type Simulation struct {
	Model     *AbstractModel
	MeanField *MeanField
	Steps     int
	Export    ExportConfig
}

// NewSimulation returns a new Simulation from a configuration.
func NewSimulation(conf Config) *Simulation {
	model := NewAbstractModel(conf.Initial[0], conf.Initial[1], conf.Initial[2], conf)
	mf := NewMeanField(conf.Initial[0], conf.Initial[1], conf.Initial[2], conf.Params, conf.Substeps)
	return &Simulation{model, mf, conf.Steps, conf.Export}
}

// Run creates the concrete states and steps them Steps times. Every snapshot, including the
// initial one, is returned and, if configured, exported.
func (s *Simulation) Run(src rand.Source) ([]Snapshot, error) {
	if err := s.Model.CreateConcreteStates(src); err != nil {
		return nil, err
	}
	var (
		wg        sync.WaitGroup
		streamErr error
		snapChan  chan Snapshot
	)
	if s.Export.AsCSV {
		snapChan = make(chan Snapshot, 100)
		wg.Add(1)
		go func() {
			defer wg.Done()
			streamErr = StreamSnapshots(s.Export, snapChan)
		}()
	}
	record := func(snaps []Snapshot, step int) []Snapshot {
		snap := Snapshot{step, s.Model.StateArray(), s.MeanField.State()}
		if snapChan != nil {
			snapChan <- snap
		}
		return append(snaps, snap)
	}

	start := time.Now()
	snaps := record(make([]Snapshot, 0, s.Steps+1), 0)
	var runErr error
	for step := 1; step <= s.Steps; step++ {
		if runErr = s.Model.Step(src); runErr != nil {
			runErr = fmt.Errorf("step %d: %w", step, runErr)
			break
		}
		s.MeanField.PropagateOneStep()
		snaps = record(snaps, step)
		s.Model.logger.Log("level", "info", "subsys", "sim", "step", step, "state", s.Model, "meanfield", fmt.Sprintf("%.4f", s.MeanField.State()))
	}
	if snapChan != nil {
		close(snapChan)
		wg.Wait()
	}
	if runErr != nil {
		return snaps, runErr
	}
	if streamErr != nil {
		return snaps, fmt.Errorf("export: %w", streamErr)
	}
	s.Model.logger.Log("level", "notice", "subsys", "sim", "status", "finished", "steps", s.Steps, "duration", time.Since(start))
	if s.Export.Plot {
		filename, err := PlotSnapshots(s.Export, snaps)
		if err != nil {
			return snaps, fmt.Errorf("plot: %w", err)
		}
		s.Model.logger.Log("level", "info", "subsys", "sim", "plot", filename)
	}
	return snaps, nil
}
