package sim

import (
	"math"

	"github.com/san-kum/pneumostab/internal/corner"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/gas"
)

// exchange resolves gas flow through open valves on the planned corner
// states. It returns the new receiver state and the mass moved; planned is
// updated in place only on success.
func (d *Driver) exchange(planned *[dynamo.NumCorners]corner.State, in Inputs, dt float64) (gas.Tank, float64, error) {
	open := make([]ValveLine, 0, len(d.params.Valves))
	for _, v := range d.params.Valves {
		if in.Corners[v.Corner].Valve(v.Chamber) {
			open = append(open, v)
		}
	}
	if len(open) == 0 {
		return d.tank, 0, nil
	}

	next := *planned
	var (
		tank  gas.Tank
		moved float64
		err   error
	)
	if d.params.FlowRate == 0 {
		tank, moved, err = equalizeOpen(&next, d.tank, open)
	} else {
		tank, moved, err = flowOpen(&next, d.tank, open, d.params.FlowRate, dt)
	}
	if err != nil {
		return d.tank, 0, err
	}

	*planned = next
	d.log.Trace().Int("open", len(open)).Float64("moved_kg", moved).Float64("tank_pa", tank.Pressure).Msg("valve exchange")
	return tank, moved, nil
}

// equalizeOpen brings the receiver and every open chamber to one pressure.
func equalizeOpen(states *[dynamo.NumCorners]corner.State, tank gas.Tank, open []ValveLine) (gas.Tank, float64, error) {
	cols := make([]gas.Column, 0, len(open)+1)
	cols = append(cols, tank.Column)
	for _, v := range open {
		cols = append(cols, states[v.Corner].Chamber(v.Chamber))
	}

	out, _, err := gas.Equalize(cols)
	if err != nil {
		return tank, 0, err
	}

	moved := 0.0
	for i, v := range open {
		before := states[v.Corner].Chamber(v.Chamber)
		moved += math.Abs(out[i+1].Mass - before.Mass)
		states[v.Corner] = states[v.Corner].WithChamber(v.Chamber, out[i+1])
	}
	return gas.Tank{Column: out[0]}, moved, nil
}

// flowOpen moves gas through each open line at a rate proportional to the
// pressure difference, in valve-list order.
func flowOpen(states *[dynamo.NumCorners]corner.State, tank gas.Tank, open []ValveLine, k, dt float64) (gas.Tank, float64, error) {
	moved := 0.0
	for _, v := range open {
		ch := states[v.Corner].Chamber(v.Chamber)
		dm := gas.LimitedFlow(ch, tank.Column, k, dt)
		nextCh, nextTank, err := gas.Transfer(ch, tank.Column, dm)
		if err != nil {
			return tank, 0, err
		}
		states[v.Corner] = states[v.Corner].WithChamber(v.Chamber, nextCh)
		tank = gas.Tank{Column: nextTank}
		moved += math.Abs(dm)
	}
	return tank, moved, nil
}
