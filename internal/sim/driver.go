package sim

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/san-kum/pneumostab/internal/corner"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/gas"
	"github.com/san-kum/pneumostab/internal/geometry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Driver advances four corners and the shared receiver one tick at a time.
// A tick either commits completely or not at all. Driver is not safe for
// concurrent use; run one driver per goroutine.
type Driver struct {
	params  Params
	corners [dynamo.NumCorners]*corner.Corner
	tank    gas.Tank
	step    int
	t       float64
	last    StateSnapshot

	log   zerolog.Logger
	meter metric.Meter
	tel   *telemetry
}

type Option func(*Driver)

func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithMeter overrides the global OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(d *Driver) { d.meter = m }
}

func NewDriver(p Params, opts ...Option) (*Driver, error) {
	d := &Driver{
		params: p,
		log:    zerolog.Nop(),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	for i, spec := range p.Corners {
		c, err := corner.New(spec)
		if err != nil {
			return nil, err
		}
		d.corners[i] = c
	}

	tank, err := gas.NewTankGas(p.Tank.Pressure, p.Tank.Volume, p.Tank.Temperature, p.Tank.GasConstant)
	if err != nil {
		return nil, err
	}
	d.tank = tank

	tel, err := newTelemetry(d.meter)
	if err != nil {
		return nil, err
	}
	d.tel = tel

	d.last = d.snapshot(0)
	d.log.Debug().
		Int("valves", len(p.Valves)).
		Float64("flow_rate", p.FlowRate).
		Float64("total_mass", d.last.TotalMass()).
		Msg("driver initialized")
	return d, nil
}

func (p Params) validate() error {
	for i, spec := range p.Corners {
		if spec.Corner != dynamo.Corners[i] {
			return fmt.Errorf("%w: corner slot %d holds %s", dynamo.ErrInvalidConfiguration, i, spec.Corner)
		}
	}
	if !dynamo.Finite(p.FlowRate) || p.FlowRate < 0 {
		return fmt.Errorf("%w: flow rate must be >= 0, got %g", dynamo.ErrInvalidConfiguration, p.FlowRate)
	}
	seen := make(map[ValveLine]bool, len(p.Valves))
	for _, v := range p.Valves {
		if !v.Corner.Valid() || (v.Chamber != dynamo.Head && v.Chamber != dynamo.Rod) {
			return fmt.Errorf("%w: valve line %v/%v", dynamo.ErrInvalidConfiguration, v.Corner, v.Chamber)
		}
		if seen[v] {
			return fmt.Errorf("%w: duplicate valve line %s/%s", dynamo.ErrInvalidConfiguration, v.Corner, v.Chamber)
		}
		seen[v] = true
	}
	return nil
}

// Advance runs one tick of length dt. On error nothing is committed and
// the previous snapshot stays current.
func (d *Driver) Advance(dt float64, in Inputs) (StateSnapshot, error) {
	if !dynamo.Positive(dt) {
		return StateSnapshot{}, d.abort(-1, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidInput, dt))
	}

	var planned [dynamo.NumCorners]corner.State
	for i, c := range d.corners {
		s, err := c.Plan(in.Corners[i].Angle)
		if err != nil {
			return StateSnapshot{}, d.abort(dynamo.Corners[i], err)
		}
		planned[i] = s
	}

	tank, moved, err := d.exchange(&planned, in, dt)
	if err != nil {
		return StateSnapshot{}, d.abort(-1, err)
	}

	for i, c := range d.corners {
		c.Commit(planned[i])
	}
	d.tank = tank
	d.step++
	d.t += dt

	d.last = d.snapshot(moved)
	d.tel.recordTick(moved)
	return d.last, nil
}

func (d *Driver) abort(c dynamo.Corner, err error) error {
	d.tel.recordAbort(c, err)
	d.log.Debug().Err(err).Int("step", d.step+1).Stringer("corner", c).Msg("tick aborted")
	return &dynamo.TickError{Step: d.step + 1, Time: d.t, Corner: c, Wrapped: err}
}

func (d *Driver) snapshot(moved float64) StateSnapshot {
	s := StateSnapshot{
		Step:        d.step,
		Time:        d.t,
		Tank:        tankSnapshot(d.tank),
		Transferred: moved,
	}
	for i, c := range d.corners {
		s.Corners[i] = c.Snapshot()
	}
	return s
}

// Snapshot returns the last committed snapshot.
func (d *Driver) Snapshot() StateSnapshot { return d.last }

func (d *Driver) Step() int { return d.step }

func (d *Driver) Time() float64 { return d.t }

func (d *Driver) Params() Params { return d.params }

// Neutral returns the equal-volume reference of corner c.
func (d *Driver) Neutral(c dynamo.Corner) geometry.Neutral {
	return d.corners[c].Neutral()
}

// RestInputs holds every corner at its rest angle with all valves closed.
func (d *Driver) RestInputs() Inputs {
	var in Inputs
	for i, spec := range d.params.Corners {
		in.Corners[i].Angle = spec.RestAngle
	}
	return in
}

// IsTickError reports whether err came from an aborted tick.
func IsTickError(err error) bool {
	var te *dynamo.TickError
	return errors.As(err, &te)
}
