package control

import (
	"context"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/vehicle"
)

// None coasts: it always commands zero acceleration and zero steering.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Optimize(ctx context.Context, car *vehicle.Car, targets []dynamo.Point) (dynamo.Control, error) {
	if len(targets) == 0 {
		return nil, dynamo.ErrEmptyHorizon
	}
	return dynamo.Control{0, 0}, nil
}
