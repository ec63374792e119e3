// Package dynamo provides the shared primitives of the pneumatic core.
//
// It defines the vocabulary every other package speaks:
//
//   - [Corner]: one of the four suspension units (fl, fr, rl, rr)
//   - [Chamber]: the head or rod side of a double-acting cylinder
//   - [Mode]: isothermal or adiabatic volume response
//   - [Vec3]: a frame-coordinate point in millimetres
//
// and the error taxonomy ([ErrInvalidConfiguration], [ErrInvalidVolume],
// [ErrInvalidGamma], [ErrGeometryOutOfRange], [ErrInvalidInput]) matched
// with errors.Is. [TickError] adds tick context without hiding the cause.
//
// # Units
//
// Geometry is expressed in millimetres; gas state in SI (Pa, m³, K, kg).
// Conversion happens once at the configuration boundary, except for the
// per-tick stroke-to-volume step, which uses [MM] and [MM2].
package dynamo
