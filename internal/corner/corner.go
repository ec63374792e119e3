package corner

import (
	"fmt"
	"math"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/gas"
	"github.com/san-kum/pneumostab/internal/geometry"
)

// Spec is the validated configuration of one corner. Geometry is in mm,
// gas quantities in SI.
type Spec struct {
	Corner   dynamo.Corner
	Lever    geometry.Lever
	Linkage  geometry.Linkage
	Cylinder geometry.Cylinder

	RestAngle float64 // rad

	// DeadVolume is added to each chamber so that end-of-stroke positions
	// keep a positive gas volume. m³; zero is allowed.
	DeadVolume float64

	Pressure    float64 // initial charge pressure, Pa
	Temperature float64 // K
	GasConstant float64 // J/(kg·K)

	Mode  dynamo.Mode
	Gamma float64

	// NeutralTolerance bounds |rest position - neutral position| in mm.
	// Zero disables the check; the chambers are then charged wherever the
	// rest angle puts the piston.
	NeutralTolerance float64
}

func (s Spec) Validate() error {
	if !s.Corner.Valid() {
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfiguration, s.Corner)
	}
	if err := s.Lever.Validate(); err != nil {
		return err
	}
	if err := s.Linkage.Validate(); err != nil {
		return err
	}
	if err := s.Cylinder.Validate(); err != nil {
		return err
	}
	if !dynamo.Finite(s.RestAngle) {
		return fmt.Errorf("%w: rest angle %g", dynamo.ErrInvalidConfiguration, s.RestAngle)
	}
	if !dynamo.Finite(s.DeadVolume) || s.DeadVolume < 0 {
		return fmt.Errorf("%w: dead volume must be >= 0, got %g", dynamo.ErrInvalidConfiguration, s.DeadVolume)
	}
	if !dynamo.Finite(s.NeutralTolerance) || s.NeutralTolerance < 0 {
		return fmt.Errorf("%w: neutral tolerance must be >= 0, got %g", dynamo.ErrInvalidConfiguration, s.NeutralTolerance)
	}
	switch s.Mode {
	case dynamo.Isothermal:
	case dynamo.Adiabatic:
		if err := gas.CheckGamma(s.Gamma); err != nil {
			return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfiguration, err)
		}
	default:
		return fmt.Errorf("%w: unknown mode %v", dynamo.ErrInvalidConfiguration, s.Mode)
	}
	return nil
}

// Phase is the lifecycle stage of a corner.
type Phase int

const (
	Initialized Phase = iota
	Running
)

func (p Phase) String() string {
	if p == Running {
		return "running"
	}
	return "initialized"
}

// State is a complete, self-consistent corner state for one tick.
type State struct {
	Angle  float64
	JRod   dynamo.Vec3
	Stroke geometry.Stroke
	Head   gas.Column
	Rod    gas.Column
}

// Corner owns one suspension unit: its lever geometry and both cylinder
// chambers. It is not safe for concurrent use.
type Corner struct {
	spec    Spec
	neutral geometry.Neutral
	state   State
	phase   Phase
}

// New validates spec and charges both chambers at the piston position of
// the rest angle, so a first tick at the rest angle changes nothing.
func New(spec Spec) (*Corner, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("corner %s: %w", spec.Corner, err)
	}
	neutral, err := spec.Cylinder.Neutral()
	if err != nil {
		return nil, fmt.Errorf("corner %s: %w", spec.Corner, err)
	}

	jRod := spec.Lever.JRod(spec.RestAngle)
	stroke, err := spec.Linkage.Stroke(spec.Cylinder, jRod)
	if err != nil {
		return nil, fmt.Errorf("corner %s: rest angle: %w: %w", spec.Corner, dynamo.ErrInvalidConfiguration, err)
	}
	if spec.NeutralTolerance > 0 {
		if off := math.Abs(stroke.Position - neutral.Head); off > spec.NeutralTolerance {
			return nil, fmt.Errorf("%w: corner %s rest position %.3f mm is %.3f mm from neutral %.3f mm",
				dynamo.ErrInvalidConfiguration, spec.Corner, stroke.Position, off, neutral.Head)
		}
	}

	headVol, rodVol := spec.volumes(stroke.Position)
	head, err := gas.NewCylinderGas(spec.Pressure, headVol, spec.Temperature, spec.GasConstant)
	if err != nil {
		return nil, fmt.Errorf("corner %s head: %w", spec.Corner, err)
	}
	rod, err := gas.NewCylinderGas(spec.Pressure, rodVol, spec.Temperature, spec.GasConstant)
	if err != nil {
		return nil, fmt.Errorf("corner %s rod: %w", spec.Corner, err)
	}

	return &Corner{
		spec:    spec,
		neutral: neutral,
		state: State{
			Angle:  spec.RestAngle,
			JRod:   jRod,
			Stroke: stroke,
			Head:   head,
			Rod:    rod,
		},
		phase: Initialized,
	}, nil
}

// volumes converts a head chamber length in mm to chamber volumes in m³.
func (s Spec) volumes(headLength float64) (head, rod float64) {
	working := s.Cylinder.WorkingLength()
	head = s.Cylinder.HeadArea()*headLength*dynamo.MM3 + s.DeadVolume
	rod = s.Cylinder.RodArea()*(working-headLength)*dynamo.MM3 + s.DeadVolume
	return head, rod
}

// Plan computes the corner state for a new lever angle without touching
// the corner. On error the corner is unchanged.
func (c *Corner) Plan(angle float64) (State, error) {
	if !dynamo.Finite(angle) {
		return State{}, fmt.Errorf("%w: angle %g", dynamo.ErrInvalidInput, angle)
	}
	jRod := c.spec.Lever.JRod(angle)
	stroke, err := c.spec.Linkage.Stroke(c.spec.Cylinder, jRod)
	if err != nil {
		return State{}, err
	}

	headVol, rodVol := c.spec.volumes(stroke.Position)
	head, err := c.state.Head.Update(c.spec.Mode, headVol, c.spec.Gamma)
	if err != nil {
		return State{}, fmt.Errorf("head chamber: %w", err)
	}
	rod, err := c.state.Rod.Update(c.spec.Mode, rodVol, c.spec.Gamma)
	if err != nil {
		return State{}, fmt.Errorf("rod chamber: %w", err)
	}

	return State{Angle: angle, JRod: jRod, Stroke: stroke, Head: head, Rod: rod}, nil
}

// Commit installs a planned state and moves the corner to Running.
func (c *Corner) Commit(s State) {
	c.state = s
	c.phase = Running
}

// Advance plans and commits in one call.
func (c *Corner) Advance(angle float64) (Snapshot, error) {
	s, err := c.Plan(angle)
	if err != nil {
		return Snapshot{}, fmt.Errorf("corner %s: %w", c.spec.Corner, err)
	}
	c.Commit(s)
	return c.Snapshot(), nil
}

func (c *Corner) ID() dynamo.Corner { return c.spec.Corner }

func (c *Corner) Spec() Spec { return c.spec }

func (c *Corner) Phase() Phase { return c.phase }

// State is the last committed state.
func (c *Corner) State() State { return c.state }

// Neutral is the equal-volume reference solved at construction.
func (c *Corner) Neutral() geometry.Neutral { return c.neutral }

func (c *Corner) Snapshot() Snapshot { return c.state.Snapshot(c.spec.Corner) }

// WithChamber returns a copy of s with chamber ch replaced.
func (s State) WithChamber(ch dynamo.Chamber, col gas.Column) State {
	if ch == dynamo.Rod {
		s.Rod = col
	} else {
		s.Head = col
	}
	return s
}

// Chamber returns the gas column of ch.
func (s State) Chamber(ch dynamo.Chamber) gas.Column {
	if ch == dynamo.Rod {
		return s.Rod
	}
	return s.Head
}
