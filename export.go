package sir

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ExportConfig configures the export of a simulation.
type ExportConfig struct {
	Filename  string
	Dir       string
	AsCSV     bool
	Plot      bool
	Timestamp bool
}

// IsUseless returns whether this config does not export anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.Plot
}

// path returns the file path for the given kind and extension.
func (c ExportConfig) path(kind, ext string) string {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("%s-%s", kind, c.Filename)
	if c.Timestamp {
		name += time.Now().UTC().Format("-2006-01-02T15.04.05")
	}
	return filepath.Join(dir, name+"."+ext)
}

// Snapshot is the aggregate state after a given step.
type Snapshot struct {
	Step      int
	Abstract  [3]float64
	MeanField [3]float64
}

var csvHeader = []string{"step", "rhoS", "rhoI", "rhoR", "mfS", "mfI", "mfR"}

// record returns the CSV record of this snapshot.
func (s Snapshot) record() []string {
	rec := make([]string, 0, len(csvHeader))
	rec = append(rec, strconv.Itoa(s.Step))
	for _, v := range s.Abstract {
		rec = append(rec, strconv.FormatFloat(v, 'f', 6, 64))
	}
	for _, v := range s.MeanField {
		rec = append(rec, strconv.FormatFloat(v, 'f', 6, 64))
	}
	return rec
}

// StreamSnapshots writes every snapshot received on the channel to a CSV file until the channel is closed.
// The channel is always drained, even when writing fails.
func StreamSnapshots(conf ExportConfig, snapChan <-chan Snapshot) error {
	defer func() {
		for range snapChan {
		}
	}()
	f, err := os.Create(conf.path("abstraction", "csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "# Creation date (UTC): %s\n# Records are the aggregate state and its mean-field reference after each step.\n", time.Now().UTC()); err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for snap := range snapChan {
		if err := w.Write(snap.record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadSnapshots parses a CSV file written by StreamSnapshots.
func ReadSnapshots(filename string) ([]Snapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", filename)
	}
	snaps := make([]Snapshot, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		if len(record) != len(csvHeader) {
			return nil, fmt.Errorf("%s: record %d has %d fields", filename, lineNo+1, len(record))
		}
		var snap Snapshot
		if snap.Step, err = strconv.Atoi(record[0]); err != nil {
			return nil, err
		}
		for i := 0; i < 3; i++ {
			if snap.Abstract[i], err = strconv.ParseFloat(record[1+i], 64); err != nil {
				return nil, err
			}
			if snap.MeanField[i], err = strconv.ParseFloat(record[4+i], 64); err != nil {
				return nil, err
			}
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// PlotSnapshots saves a PNG of the aggregate and mean-field compartments over the steps.
func PlotSnapshots(conf ExportConfig, snaps []Snapshot) (string, error) {
	p := plot.New()
	p.Title.Text = conf.Filename
	p.X.Label.Text = "step"
	p.Y.Label.Text = "individuals"
	names := []string{"S", "I", "R"}
	var lines []interface{}
	for c, name := range names {
		abstract := make(plotter.XYs, len(snaps))
		meanField := make(plotter.XYs, len(snaps))
		for k, snap := range snaps {
			abstract[k].X = float64(snap.Step)
			abstract[k].Y = snap.Abstract[c]
			meanField[k].X = float64(snap.Step)
			meanField[k].Y = snap.MeanField[c]
		}
		lines = append(lines, "ρ"+name, abstract, name+" (mean-field)", meanField)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return "", err
	}
	filename := conf.path("abstraction", "png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return "", err
	}
	return filename, nil
}
