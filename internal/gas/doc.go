// Package gas models enclosed ideal-gas volumes: cylinder chambers and the
// shared receiver tank.
//
// All functions are pure. A [Column] is updated with [IsoUpdate] (constant
// temperature) or [AdiabaticUpdate] (no heat exchange), and both preserve
// P·V = m·R·T. [ApplyInstantVolumeChange] approximates a sudden piston step
// with the adiabatic law; this is an intentional simplification, there is no
// heat-transfer model.
//
// Inputs are SI: Pa, m³, K, kg, J/(kg·K). No unit conversion happens here.
package gas
