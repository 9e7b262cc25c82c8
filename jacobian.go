package sir

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Linearization stores one abstraction step and its Monte-Carlo Jacobian.
type Linearization struct {
	In, Out  [3]float64 // aggregate state before and after the step
	Jacobian *mat.Dense // ∂Out/∂In, 3x3
}

// AsMatrix returns the 3xN matrix of the concrete states, rows being S, I and R.
func AsMatrix(states []*SIRModel) *mat.Dense {
	m := mat.NewDense(3, max(len(states), 1), nil)
	for k, model := range states {
		m.Set(0, k, float64(model.S))
		m.Set(1, k, float64(model.I))
		m.Set(2, k, float64(model.R))
	}
	return m
}

// CalculateJacobian estimates the Jacobian of the aggregate state through one step from the concrete
// states before (in) and after (out) that step. Both must be 3xNSamples.
//
//	J[i][j] = 1/N Σ_k out[i][k] (in[j][k] - mean(in[j])) / inAbstractState[j]
//
// For Poisson inputs this is Cov(out_i, in_j)/Var(in_j), i.e. ∂E[out_i]/∂ρ_j.
// A zero in inAbstractState is not guarded against and yields a non-finite column.
func (a *AbstractModel) CalculateJacobian(in, out mat.Matrix, inAbstractState mat.Vector) (*mat.Dense, error) {
	if r, c := in.Dims(); r != 3 || c != a.NSamples {
		return nil, fmt.Errorf("%w: input states are %dx%d, want 3x%d", ErrDimensionMismatch, r, c, a.NSamples)
	}
	if r, c := out.Dims(); r != 3 || c != a.NSamples {
		return nil, fmt.Errorf("%w: output states are %dx%d, want 3x%d", ErrDimensionMismatch, r, c, a.NSamples)
	}
	if inAbstractState.Len() != 3 {
		return nil, fmt.Errorf("%w: abstract state has %d components, want 3", ErrDimensionMismatch, inAbstractState.Len())
	}
	n := float64(a.NSamples)
	jacobian := mat.NewDense(3, 3, nil)
	centered := make([]float64, a.NSamples)
	for j := 0; j < 3; j++ {
		inRow := mat.Row(nil, j, in)
		μ := stat.Mean(inRow, nil)
		for k, v := range inRow {
			centered[k] = v - μ
		}
		for i := 0; i < 3; i++ {
			outRow := mat.NewVecDense(a.NSamples, mat.Row(nil, i, out))
			element := mat.Dot(outRow, mat.NewVecDense(a.NSamples, centered))
			jacobian.Set(i, j, element/(n*inAbstractState.AtVec(j)))
		}
	}
	return jacobian, nil
}

// Linearize samples the concrete states from the current aggregate state, steps once and estimates
// the Jacobian of that step. The model is left in the post-step state.
func (a *AbstractModel) Linearize(src rand.Source) (Linearization, error) {
	lin := Linearization{In: a.StateArray()}
	if err := a.CreateConcreteStates(src); err != nil {
		return lin, err
	}
	inStates := AsMatrix(a.concrete)
	if err := a.Step(src); err != nil {
		return lin, err
	}
	outStates := AsMatrix(a.concrete)
	lin.Out = a.StateArray()
	jacobian, err := a.CalculateJacobian(inStates, outStates, mat.NewVecDense(3, lin.In[:]))
	if err != nil {
		return lin, err
	}
	lin.Jacobian = jacobian
	a.logger.Log("level", "info", "subsys", "jacobian", "in", fmt.Sprintf("%v", lin.In), "out", fmt.Sprintf("%v", lin.Out), "J", fmt.Sprintf("%v", mat.Formatted(jacobian, mat.Squeeze())))
	return lin, nil
}
