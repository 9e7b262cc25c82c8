package sir

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// TransitionParams defines the rates of a concrete SIR transition.
type TransitionParams struct {
	Beta  float64 // infection rate
	Gamma float64 // recovery rate
	Dt    float64 // duration of one step
}

func (p TransitionParams) String() string {
	return fmt.Sprintf("β=%.4f γ=%.4f Δt=%.3f", p.Beta, p.Gamma, p.Dt)
}

// infectionProb returns the probability for one susceptible to be infected during one step.
func (p TransitionParams) infectionProb(s, i, r int) float64 {
	n := s + i + r
	if n == 0 || i == 0 {
		return 0
	}
	return -math.Expm1(-p.Beta * float64(i) * p.Dt / float64(n))
}

// recoveryProb returns the probability for one infected to recover during one step.
func (p TransitionParams) recoveryProb() float64 {
	return -math.Expm1(-p.Gamma * p.Dt)
}

// SIRModel is one concrete realization of the population.
type SIRModel struct {
	S, I, R int
	Params  TransitionParams
}

// NewSIRModel returns a new concrete state.
func NewSIRModel(s, i, r int, p TransitionParams) *SIRModel {
	return &SIRModel{s, i, r, p}
}

// Population returns S+I+R, which Step conserves.
func (m *SIRModel) Population() int {
	return m.S + m.I + m.R
}

// Step advances this realization by one Dt.
// Infections and recoveries are both drawn from the counts at the start of the step.
func (m *SIRModel) Step(src rand.Source) {
	infections := binomial(m.S, m.Params.infectionProb(m.S, m.I, m.R), src)
	recoveries := binomial(m.I, m.Params.recoveryProb(), src)
	m.S -= infections
	m.I += infections - recoveries
	m.R += recoveries
}

func (m *SIRModel) String() string {
	return fmt.Sprintf("S=%d I=%d R=%d", m.S, m.I, m.R)
}

func binomial(n int, p float64, src rand.Source) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	return int(distuv.Binomial{N: float64(n), P: p, Src: src}.Rand())
}
