// Package geometry solves the rigid-link kinematics of one suspension corner.
//
// A [Lever] pivots about j_arm in the transverse plane; its tip j_rod pulls
// the piston rod of a [Cylinder] whose tail hangs from j_tail through a
// [Linkage]. [ComputePistonStroke] turns |j_rod - j_tail| into a piston
// position and stroke ratio, and [NeutralPosition] finds the equal-volume
// piston position used as the rest reference.
//
// All lengths are millimetres.
package geometry
