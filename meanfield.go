package sir

import (
	"github.com/ChristopherRabotin/ode"
)

// MeanField is an ode.Integrable of the deterministic SIR equations, used as a reference for the
// aggregate state of an AbstractModel with the same TransitionParams.
//
//	dS/dt = -β S I / N
//	dI/dt =  β S I / N - γ I
//	dR/dt =  γ I
type MeanField struct {
	S, I, R  float64
	Params   TransitionParams
	substeps int
	iter     int // RK4 iterations performed in the current step
}

// NewMeanField returns a new MeanField which integrates each Dt with `substeps` RK4 steps.
func NewMeanField(s, i, r float64, p TransitionParams, substeps int) *MeanField {
	if substeps <= 0 {
		substeps = 1
	}
	return &MeanField{s, i, r, p, substeps, 0}
}

// GetState implements the ode.Integrable interface.
func (m *MeanField) GetState() []float64 {
	return []float64{m.S, m.I, m.R}
}

// SetState implements the ode.Integrable interface.
func (m *MeanField) SetState(t float64, s []float64) {
	m.S = s[0]
	m.I = s[1]
	m.R = s[2]
	m.iter++
}

// Stop implements the ode.Integrable interface.
func (m *MeanField) Stop(t float64) bool {
	return m.iter >= m.substeps
}

// Func implements the ode.Integrable interface.
func (m *MeanField) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, 3)
	n := f[0] + f[1] + f[2]
	var infection float64
	if n > 0 {
		infection = m.Params.Beta * f[0] * f[1] / n
	}
	recovery := m.Params.Gamma * f[1]
	fDot[0] = -infection
	fDot[1] = infection - recovery
	fDot[2] = recovery
	return
}

// PropagateOneStep integrates the equations over one Dt.
func (m *MeanField) PropagateOneStep() {
	m.iter = 0
	ode.NewRK4(0, m.Params.Dt/float64(m.substeps), m).Solve() // Blocking.
}

// State returns (S, I, R).
func (m *MeanField) State() [3]float64 {
	return [3]float64{m.S, m.I, m.R}
}
