// Package control provides baseline path-tracking controllers to compare
// the MPC against.
//
// Every controller answers the same question as the optimizer: given the
// car and the next waypoints, which [acceleration, steering] command to
// apply now.
//
//   - [Pursuit]: pure-pursuit steering plus a [PID] speed loop
//   - [None]: coasting (zero control)
//
// # Usage
//
//	ctrl := control.NewPursuit(3, 5, 60)
//	s := sim.New(car, ctrl)
//	// Optimize is called once per waypoint
//
// [Pursuit] implements [dynamo.Configurable] for tuning.
package control
