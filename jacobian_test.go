package sir

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func poissonMatrix(λ [3]float64, n int, seed uint64) *mat.Dense {
	src := testSource(seed)
	m := mat.NewDense(3, n, nil)
	for i := 0; i < 3; i++ {
		dist := distuv.Poisson{Lambda: λ[i], Src: src}
		for k := 0; k < n; k++ {
			m.Set(i, k, dist.Rand())
		}
	}
	return m
}

func TestJacobianIdentityTransition(t *testing.T) {
	a := testModel(10, 10, 10, 1000, TransitionParams{Dt: 1})
	in := poissonMatrix([3]float64{10, 10, 10}, 1000, 20)
	J, err := a.CalculateJacobian(in, in, mat.NewVecDense(3, []float64{10, 10, 10}))
	if err != nil {
		t.Fatal(err)
	}
	// The outputs are not centered, so each entry has a standard deviation of about 0.1 for N=1000.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			exp := 0.0
			if i == j {
				exp = 1
			}
			if math.Abs(J.At(i, j)-exp) > 0.45 {
				t.Fatalf("J[%d][%d]=%f, expected ~%f\n%v", i, j, J.At(i, j), exp, mat.Formatted(J))
			}
		}
	}
}

func TestJacobianZeroAbstractState(t *testing.T) {
	a := testModel(10, 0, 10, 500, TransitionParams{Dt: 1})
	in := poissonMatrix([3]float64{10, 5, 10}, 500, 21)
	J, err := a.CalculateJacobian(in, in, mat.NewVecDense(3, []float64{10, 0, 10}))
	if err != nil {
		t.Fatal(err)
	}
	// A zero input rate is not guarded: the whole column is non-finite.
	for i := 0; i < 3; i++ {
		if v := J.At(i, 1); !math.IsInf(v, 0) && !math.IsNaN(v) {
			t.Fatalf("J[%d][1]=%f, expected a non-finite value", i, v)
		}
		if v := J.At(i, 0); math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("J[%d][0]=%f should be finite", i, v)
		}
	}
}

func TestJacobianDimensions(t *testing.T) {
	a := testModel(10, 10, 10, 100, TransitionParams{Dt: 1})
	good := poissonMatrix([3]float64{10, 10, 10}, 100, 22)
	short := poissonMatrix([3]float64{10, 10, 10}, 99, 23)
	state := mat.NewVecDense(3, []float64{10, 10, 10})
	if _, err := a.CalculateJacobian(short, good, state); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch for input, got %v", err)
	}
	if _, err := a.CalculateJacobian(good, short, state); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch for output, got %v", err)
	}
	if _, err := a.CalculateJacobian(good, good, mat.NewVecDense(2, []float64{10, 10})); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch for state, got %v", err)
	}
}

func TestAsMatrix(t *testing.T) {
	p := TransitionParams{Dt: 1}
	m := AsMatrix([]*SIRModel{NewSIRModel(1, 2, 3, p), NewSIRModel(4, 5, 6, p)})
	exp := mat.NewDense(3, 2, []float64{1, 4, 2, 5, 3, 6})
	if !mat.Equal(m, exp) {
		t.Fatalf("unexpected matrix\n%v", mat.Formatted(m))
	}
}

func TestLinearizeRecoveryOnly(t *testing.T) {
	// Without infections, I' ~ Binomial(I, q) with q = exp(-γΔt), so ∂I'/∂ρI = q and ∂R'/∂ρI = 1-q.
	p := TransitionParams{Beta: 0, Gamma: 0.5, Dt: 1}
	a := testModel(20, 30, 10, DefaultSamples, p)
	lin, err := a.Linearize(testSource(24))
	if err != nil {
		t.Fatal(err)
	}
	if lin.In != [3]float64{20, 30, 10} {
		t.Fatalf("unexpected input state %v", lin.In)
	}
	if lin.Out != a.StateArray() {
		t.Fatalf("output state %v differs from model state %v", lin.Out, a.StateArray())
	}
	q := math.Exp(-0.5)
	exp := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, q, 0,
		0, 1 - q, 1,
	})
	if !mat.EqualApprox(lin.Jacobian, exp, 0.2) {
		t.Fatalf("unexpected Jacobian\n%v\nexpected\n%v", mat.Formatted(lin.Jacobian), mat.Formatted(exp))
	}
	if !statesWithin(lin.Out, [3]float64{20, 30 * q, 10 + 30*(1-q)}, 0.5) {
		t.Fatalf("unexpected output state %v", lin.Out)
	}
}

func TestLinearizeInvalidState(t *testing.T) {
	a := testModel(-1, 1, 1, 10, TransitionParams{Dt: 1})
	if _, err := a.Linearize(testSource(25)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}
