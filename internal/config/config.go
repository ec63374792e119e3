package config

import (
	"fmt"
	"os"

	"github.com/san-kum/pneumostab/internal/corner"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/geometry"
	"github.com/san-kum/pneumostab/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt               = 0.001
	DefaultDuration         = 5.0
	DefaultPressure         = 4e5
	DefaultTemperature      = 293.15
	DefaultTankPressure     = 6e5
	DefaultTankVolume       = 2e7 // mm³, 20 L
	DefaultNeutralTolerance = 0.5
	DefaultAmplitude        = 0.12
	DefaultFrequency        = 1.5
)

// Scenario is the on-disk description of a simulation. Lengths are in
// millimetres, volumes in mm³, pressures in Pa, temperatures in K, angles
// in radians. Params converts it to SI once.
type Scenario struct {
	Name     string  `yaml:"name"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`

	Gas                GasConfig     `yaml:"gas"`
	NeutralToleranceMM float64       `yaml:"neutral_tolerance_mm"`
	Corners            CornersConfig `yaml:"corners"`
	Tank               TankConfig    `yaml:"tank"`
	Valves             ValveConfig   `yaml:"valves"`
	Road               RoadConfig    `yaml:"road"`
}

type GasConfig struct {
	Mode        string  `yaml:"mode"`
	Gamma       float64 `yaml:"gamma"`
	GasConstant float64 `yaml:"gas_constant"`
}

type CornersConfig struct {
	FL CornerConfig `yaml:"fl"`
	FR CornerConfig `yaml:"fr"`
	RL CornerConfig `yaml:"rl"`
	RR CornerConfig `yaml:"rr"`
}

// Get returns the configuration of corner c.
func (cc *CornersConfig) Get(c dynamo.Corner) *CornerConfig {
	switch c {
	case dynamo.FrontLeft:
		return &cc.FL
	case dynamo.FrontRight:
		return &cc.FR
	case dynamo.RearLeft:
		return &cc.RL
	default:
		return &cc.RR
	}
}

type CornerConfig struct {
	JArm            [3]float64 `yaml:"j_arm,flow"`
	JTail           [3]float64 `yaml:"j_tail,flow"`
	LeverLength     float64    `yaml:"lever_length"`
	RestAngle       float64    `yaml:"rest_angle"`
	TailLink        float64    `yaml:"tail_link"`
	RodLink         float64    `yaml:"rod_link"`
	Bore            float64    `yaml:"bore"`
	Rod             float64    `yaml:"rod"`
	BodyLength      float64    `yaml:"body_length"`
	PistonThickness float64    `yaml:"piston_thickness"`
	DeadVolume      float64    `yaml:"dead_volume"`
	Pressure        float64    `yaml:"pressure"`
	Temperature     float64    `yaml:"temperature"`
	// Mode and Gamma override the scenario gas section when set.
	Mode  string  `yaml:"mode,omitempty"`
	Gamma float64 `yaml:"gamma,omitempty"`
}

type TankConfig struct {
	Pressure    float64 `yaml:"pressure"`
	Volume      float64 `yaml:"volume"`
	Temperature float64 `yaml:"temperature"`
}

type ValveLineConfig struct {
	Corner  string `yaml:"corner"`
	Chamber string `yaml:"chamber"`
}

type ValveConfig struct {
	FlowRate float64           `yaml:"flow_rate"`
	Lines    []ValveLineConfig `yaml:"lines"`
}

type RoadConfig struct {
	Profile   string  `yaml:"profile"`
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Speed     float64 `yaml:"speed"`
	Wheelbase float64 `yaml:"wheelbase"`
	BumpTime  float64 `yaml:"bump_time"`
	// ValveOpen lists the chambers ("head", "rod") whose valves the road
	// schedule keeps open.
	ValveOpen []string `yaml:"valve_open,flow"`
}

func DefaultScenario() *Scenario {
	return newFrame("default", dynamo.Isothermal)
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfiguration, path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate converts the scenario and builds a throwaway driver, so every
// geometric and thermodynamic check runs before the first tick.
func (s *Scenario) Validate() error {
	if !dynamo.Positive(s.Dt) || !dynamo.Positive(s.Duration) {
		return fmt.Errorf("%w: dt %g and duration %g must be positive", dynamo.ErrInvalidConfiguration, s.Dt, s.Duration)
	}
	p, err := s.Params()
	if err != nil {
		return err
	}
	if _, err := sim.NewDriver(p); err != nil {
		return err
	}
	return nil
}

// Params converts the scenario to the SI configuration of the driver.
func (s *Scenario) Params() (sim.Params, error) {
	var p sim.Params

	mode, err := dynamo.ParseMode(s.Gas.Mode)
	if err != nil {
		return p, err
	}

	for i, c := range dynamo.Corners {
		cc := s.Corners.Get(c)
		spec, err := s.cornerSpec(c, cc, mode)
		if err != nil {
			return p, err
		}
		p.Corners[i] = spec
	}

	p.Tank = sim.TankSpec{
		Pressure:    s.Tank.Pressure,
		Volume:      s.Tank.Volume * dynamo.MM3,
		Temperature: s.Tank.Temperature,
		GasConstant: s.Gas.GasConstant,
	}

	p.FlowRate = s.Valves.FlowRate
	for _, l := range s.Valves.Lines {
		c, err := dynamo.ParseCorner(l.Corner)
		if err != nil {
			return p, err
		}
		ch, err := dynamo.ParseChamber(l.Chamber)
		if err != nil {
			return p, err
		}
		p.Valves = append(p.Valves, sim.ValveLine{Corner: c, Chamber: ch})
	}
	return p, nil
}

func (s *Scenario) cornerSpec(c dynamo.Corner, cc *CornerConfig, mode dynamo.Mode) (corner.Spec, error) {
	gamma := s.Gas.Gamma
	if cc.Mode != "" {
		m, err := dynamo.ParseMode(cc.Mode)
		if err != nil {
			return corner.Spec{}, err
		}
		mode = m
	}
	if cc.Gamma != 0 {
		gamma = cc.Gamma
	}

	return corner.Spec{
		Corner: c,
		Lever: geometry.Lever{
			JArm:   dynamo.Vec3(cc.JArm),
			Length: cc.LeverLength,
			Mirror: c.Left(),
		},
		Linkage: geometry.Linkage{
			JTail:    dynamo.Vec3(cc.JTail),
			TailLink: cc.TailLink,
			RodLink:  cc.RodLink,
		},
		Cylinder: geometry.Cylinder{
			Bore:            cc.Bore,
			Rod:             cc.Rod,
			BodyLength:      cc.BodyLength,
			PistonThickness: cc.PistonThickness,
		},
		RestAngle:        cc.RestAngle,
		DeadVolume:       cc.DeadVolume * dynamo.MM3,
		Pressure:         cc.Pressure,
		Temperature:      cc.Temperature,
		GasConstant:      s.Gas.GasConstant,
		Mode:             mode,
		Gamma:            gamma,
		NeutralTolerance: s.NeutralToleranceMM,
	}, nil
}

// RunConfig is the runner configuration of the scenario.
func (s *Scenario) RunConfig() sim.RunConfig {
	return sim.RunConfig{Dt: s.Dt, Duration: s.Duration}
}

// RestAngles lists the rest angle of each corner in snapshot order.
func (s *Scenario) RestAngles() [dynamo.NumCorners]float64 {
	var out [dynamo.NumCorners]float64
	for i, c := range dynamo.Corners {
		out[i] = s.Corners.Get(c).RestAngle
	}
	return out
}

// Clone returns a deep copy.
func (s *Scenario) Clone() *Scenario {
	c := *s
	c.Valves.Lines = append([]ValveLineConfig(nil), s.Valves.Lines...)
	c.Road.ValveOpen = append([]string(nil), s.Road.ValveOpen...)
	return &c
}
