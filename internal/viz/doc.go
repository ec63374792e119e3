// Package viz is the terminal live view of a running driver.
//
// [Model] is a Bubble Tea program that advances the driver a few ticks per
// frame and draws the lever and cylinder of each corner of one axle on a
// braille [Canvas], next to stroke bars, head pressure sparklines and an
// asciigraph of the receiver pressure. A tick error halts the view and is
// shown in place.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	A     - Switch front/rear axle
//	+/-   - Ticks per frame
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
