package sir

import (
	"math/rand/v2"

	kitlog "github.com/go-kit/log"
	"gonum.org/v1/gonum/floats/scalar"
)

func testSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0xda3e39cb94b95bdb)
}

func testModel(rhoS, rhoI, rhoR float64, n int, p TransitionParams) *AbstractModel {
	conf := DefaultConfig()
	conf.Name = "test"
	conf.NSamples = n
	conf.Params = p
	a := NewAbstractModel(rhoS, rhoI, rhoR, conf)
	a.SetLogger(kitlog.NewNopLogger())
	return a
}

func statesWithin(a, b [3]float64, tol float64) bool {
	for i := 0; i < 3; i++ {
		if !scalar.EqualWithinAbs(a[i], b[i], tol) {
			return false
		}
	}
	return true
}
