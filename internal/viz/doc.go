// Package viz renders closed-loop runs in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, with [Frame] mapping world
//     coordinates onto it
//   - [Model]: Bubble Tea live view stepping the loop one tick per frame
//   - [RenderTrajectory] and [PlotSeries]: static plots of stored runs
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Restart from the start pose
//	+/-   - Faster/slower playback
//	P     - Toggle the predicted horizon (controllers exposing Last)
//	?     - Show help overlay
//	Q     - Quit
package viz
