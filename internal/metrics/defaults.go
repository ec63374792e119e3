package metrics

import "github.com/san-kum/pneumostab/internal/sim"

// Default is the metric set attached to every run.
func Default(gasConstant float64) []sim.Metric {
	return []sim.Metric{
		NewMassDrift(),
		NewGasLawResidual(gasConstant),
		NewPeakPressure(),
		NewTransferredMass(),
		NewStrokeSpan(),
		NewStrokeMargin(0.05),
	}
}
