// Package viz renders a running barotropic model in the terminal.
//
// The live view is a Bubble Tea program:
//
//   - [Model]: steps a [sim.Model] on every frame and keeps a replay history
//   - [RenderField]: shades vorticity, streamfunction or zonal wind as text
//   - [Canvas]: Braille canvas used for the vortex track
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial condition
//	F     - Cycle the displayed field
//	+/-   - Double or halve the steps per frame
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]    - Replay stored states
//
// # Recording
//
// G records the displayed field as a GIF animation, one frame per tick,
// saved to the current directory when recording stops.
package viz
