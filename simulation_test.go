package sir

import (
	"path/filepath"
	"testing"

	kitlog "github.com/go-kit/log"
)

func TestSimulationRun(t *testing.T) {
	conf := DefaultConfig()
	conf.NSamples = 2000
	conf.Steps = 5
	conf.Initial = [3]float64{95, 5, 0}
	conf.Export = ExportConfig{Filename: "run", Dir: t.TempDir(), AsCSV: true, Plot: true}
	sim := NewSimulation(conf)
	sim.Model.SetLogger(kitlog.NewNopLogger())
	snaps, err := sim.Run(testSource(40))
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != conf.Steps+1 {
		t.Fatalf("got %d snapshots, want %d", len(snaps), conf.Steps+1)
	}
	if snaps[0].Abstract != conf.Initial || snaps[0].MeanField != conf.Initial {
		t.Fatalf("first snapshot %+v should be the initial state", snaps[0])
	}
	for k, snap := range snaps {
		if snap.Step != k {
			t.Fatalf("snapshot %d has step %d", k, snap.Step)
		}
	}
	last := snaps[len(snaps)-1]
	if last.Abstract[1] <= 5 || last.MeanField[1] <= 5 {
		t.Fatalf("an R0=5 outbreak should grow over five steps: %+v", last)
	}
	read, err := ReadSnapshots(filepath.Join(conf.Export.Dir, "abstraction-run.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != len(snaps) {
		t.Fatalf("exported %d snapshots, want %d", len(read), len(snaps))
	}
}

func TestSimulationInvalidInitialState(t *testing.T) {
	conf := DefaultConfig()
	conf.NSamples = 10
	conf.Initial = [3]float64{-5, 1, 0}
	sim := NewSimulation(conf)
	sim.Model.SetLogger(kitlog.NewNopLogger())
	if _, err := sim.Run(testSource(41)); err == nil {
		t.Fatal("expected an error for a negative initial rate")
	}
}
