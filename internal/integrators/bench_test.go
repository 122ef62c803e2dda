package integrators

import (
	"testing"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &unicycle{v: 1, w: 0.1}
	x := dynamo.State{0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.2)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &unicycle{v: 1, w: 0.1}
	x := dynamo.State{0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.2)
	}
}
