package mpc_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/mpc"
	"github.com/san-kum/mpcdrive/internal/vehicle"
)

var _ = Describe("Optimizer", func() {
	var (
		ctx      context.Context
		opt      *mpc.Optimizer
		maxSteer = 60 * math.Pi / 180
	)

	newCar := func(x, y, v, psi float64) *vehicle.Car {
		car, err := vehicle.NewCar(x, y, v, psi, 4, 0.2)
		Expect(err).NotTo(HaveOccurred())
		return car
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		opt, err = mpc.New(mpc.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("accelerates straight at targets dead ahead", func() {
		car := newCar(0, 0, 0, 0)
		u, err := opt.Optimize(ctx, car, []dynamo.Point{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}})

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Steer()).To(BeNumerically("~", 0, 1e-6))
		Expect(u.Accel()).To(BeNumerically(">", 0))
	})

	It("leaves the source car untouched", func() {
		car := newCar(3, -1, 1.5, 0.4)
		before := car.State()

		_, err := opt.Optimize(ctx, car, []dynamo.Point{{X: 5, Y: 1}, {X: 6, Y: 2}})
		Expect(err).NotTo(HaveOccurred())
		Expect(car.State()).To(Equal(before))
	})

	It("holds still when parked on its only waypoint", func() {
		car := newCar(2, 3, 0, 1.1)
		u, err := opt.Optimize(ctx, car, []dynamo.Point{{X: 2, Y: 3}})

		Expect(err).NotTo(HaveOccurred())
		Expect(u.Accel()).To(BeNumerically("~", 0, 1e-6))
		Expect(u.Steer()).To(BeNumerically("~", 0, 1e-6))
	})

	DescribeTable("never reverses towards a forward target from rest",
		func(psi, d float64, horizon int) {
			car := newCar(0, 0, 0, psi)
			targets := make([]dynamo.Point, horizon)
			for i := range targets {
				r := d * float64(i+1) / float64(horizon)
				targets[i] = dynamo.Point{X: r * math.Cos(psi), Y: r * math.Sin(psi)}
			}

			u, err := opt.Optimize(ctx, car, targets)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Accel()).To(BeNumerically(">=", -1e-9))
		},
		Entry("single step along +x", 0.0, 2.0, 1),
		Entry("three steps along +x", 0.0, 3.0, 3),
		Entry("five steps heading north-east", math.Pi/4, 4.0, 5),
		Entry("ten steps heading south", -math.Pi/2, 8.0, 10),
	)

	DescribeTable("keeps commands inside the box",
		func(x, y, v, psi float64, targets []dynamo.Point) {
			u, err := opt.Optimize(ctx, newCar(x, y, v, psi), targets)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Accel()).To(BeNumerically(">=", -5))
			Expect(u.Accel()).To(BeNumerically("<=", 5))
			Expect(u.Steer()).To(BeNumerically(">=", -maxSteer))
			Expect(u.Steer()).To(BeNumerically("<=", maxSteer))
		},
		Entry("far target to the side", 0.0, 0.0, 0.0, 0.0, []dynamo.Point{{X: 0, Y: 100}, {X: 0, Y: 200}}),
		Entry("target behind at speed", 0.0, 0.0, 8.0, 0.0, []dynamo.Point{{X: -50, Y: 0}, {X: -60, Y: 0}, {X: -70, Y: 0}}),
		Entry("hard left", 10.0, 50.0, 2.0, -math.Pi/2, []dynamo.Point{{X: 20, Y: 50}, {X: 30, Y: 50}}),
	)

	It("returns a predicted trajectory as long as the horizon", func() {
		targets := []dynamo.Point{{X: 1}, {X: 2}, {X: 3}, {X: 4}}
		plan, err := opt.Plan(ctx, newCar(0, 0, 1, 0), targets)

		Expect(err).NotTo(HaveOccurred())
		Expect(plan.Controls).To(HaveLen(4))
		Expect(plan.Predicted).To(HaveLen(4))
		Expect(plan.Cost).To(BeNumerically(">=", 0))
	})

	It("shrinks the horizon with the waypoint slice", func() {
		car := newCar(0, 0, 1, 0)
		for h := 3; h >= 1; h-- {
			plan, err := opt.Plan(ctx, car, make([]dynamo.Point, h))
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Controls).To(HaveLen(h))
		}
	})

	It("rejects an empty horizon", func() {
		_, err := opt.Optimize(ctx, newCar(0, 0, 0, 0), []dynamo.Point{})
		Expect(err).To(MatchError(dynamo.ErrEmptyHorizon))
	})
})
