package sir

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	kitlog "github.com/go-kit/log"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInvalidRate is returned when an aggregate rate cannot parameterize a Poisson distribution.
	ErrInvalidRate = errors.New("sir: rate must be finite and non-negative")
	// ErrNoConcreteStates is returned when stepping before CreateConcreteStates.
	ErrNoConcreteStates = errors.New("sir: concrete states were never created")
	// ErrSampleCount is returned when a set of concrete states does not hold NSamples entries.
	ErrSampleCount = errors.New("sir: number of concrete states differs from NSamples")
	// ErrDimensionMismatch is returned when ensemble matrices or states have unexpected shapes.
	ErrDimensionMismatch = errors.New("sir: dimension mismatch")
)

// AbstractModel holds the aggregate state (ρS, ρI, ρR) and the concrete samples it summarizes.
type AbstractModel struct {
	RhoS, RhoI, RhoR float64
	NSamples         int
	Params           TransitionParams
	concrete         []*SIRModel
	logger           kitlog.Logger
}

// NewAbstractModel returns a new AbstractModel. The concrete states must be created before stepping.
func NewAbstractModel(rhoS, rhoI, rhoR float64, conf Config) *AbstractModel {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "model", conf.Name)
	return &AbstractModel{rhoS, rhoI, rhoR, conf.NSamples, conf.Params, nil, klog}
}

// NewDefaultAbstractModel is the same as NewAbstractModel with the configuration from `SIR_CONFIG`
// (or the defaults when that variable is unset).
func NewDefaultAbstractModel(rhoS, rhoI, rhoR float64) *AbstractModel {
	return NewAbstractModel(rhoS, rhoI, rhoR, sirConfig())
}

// SetLogger replaces the logger of this model.
func (a *AbstractModel) SetLogger(logger kitlog.Logger) {
	a.logger = logger
}

// CreateConcreteStates replaces the concrete states with NSamples independent Poisson draws
// parameterized by the current aggregate state. All draws come from src.
func (a *AbstractModel) CreateConcreteStates(src rand.Source) error {
	for _, ρ := range []float64{a.RhoS, a.RhoI, a.RhoR} {
		if ρ < 0 || math.IsNaN(ρ) || math.IsInf(ρ, 0) {
			return fmt.Errorf("%w: state is %s", ErrInvalidRate, a)
		}
	}
	a.logger.Log("level", "debug", "subsys", "abstract", "message", "creating concrete states", "samples", a.NSamples, "state", a)
	sPoisson := poisson(a.RhoS, src)
	iPoisson := poisson(a.RhoI, src)
	rPoisson := poisson(a.RhoR, src)
	concrete := make([]*SIRModel, a.NSamples)
	for k := range concrete {
		concrete[k] = NewSIRModel(sPoisson(), iPoisson(), rPoisson(), a.Params)
	}
	a.concrete = concrete
	return nil
}

// Step advances every concrete state by one step and re-aggregates.
func (a *AbstractModel) Step(src rand.Source) error {
	if a.concrete == nil {
		return ErrNoConcreteStates
	}
	for _, model := range a.concrete {
		model.Step(src)
	}
	return a.SetStateFromConcreteSamples(a.concrete)
}

// SetState sets the aggregate state. No validation is performed: invalid rates are only reported
// by the next CreateConcreteStates.
func (a *AbstractModel) SetState(s, i, r float64) {
	a.RhoS = s
	a.RhoI = i
	a.RhoR = r
}

// SetStateFromConcreteSamples sets each aggregate field to the sum of that field over states divided by NSamples.
func (a *AbstractModel) SetStateFromConcreteSamples(states []*SIRModel) error {
	if len(states) != a.NSamples {
		return fmt.Errorf("%w: got %d, want %d", ErrSampleCount, len(states), a.NSamples)
	}
	var sumS, sumI, sumR int
	for _, model := range states {
		sumS += model.S
		sumI += model.I
		sumR += model.R
	}
	n := float64(a.NSamples)
	a.RhoS = float64(sumS) / n
	a.RhoI = float64(sumI) / n
	a.RhoR = float64(sumR) / n
	return nil
}

// StateArray returns (ρS, ρI, ρR). The array is a copy.
func (a *AbstractModel) StateArray() [3]float64 {
	return [3]float64{a.RhoS, a.RhoI, a.RhoR}
}

// ConcreteStates returns the current concrete states (nil before CreateConcreteStates).
func (a *AbstractModel) ConcreteStates() []*SIRModel {
	return a.concrete
}

func (a *AbstractModel) String() string {
	return fmt.Sprintf("ρS=%.4f ρI=%.4f ρR=%.4f", a.RhoS, a.RhoI, a.RhoR)
}

// poisson returns a sampler of Poisson(λ) counts drawing from src.
func poisson(λ float64, src rand.Source) func() int {
	if λ == 0 {
		return func() int { return 0 }
	}
	dist := distuv.Poisson{Lambda: λ, Src: src}
	return func() int {
		return int(dist.Rand())
	}
}
