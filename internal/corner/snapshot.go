package corner

import "github.com/san-kum/pneumostab/internal/dynamo"

// Snapshot is the outward view of one corner after a tick.
type Snapshot struct {
	Corner         dynamo.Corner `json:"corner"`
	Angle          float64       `json:"angle"`
	PistonRatio    float64       `json:"piston_ratio"`
	PistonPosition float64       `json:"piston_position_mm"`
	JRod           dynamo.Vec3   `json:"j_rod"`

	HeadPressure    float64 `json:"head_pressure"`
	HeadVolume      float64 `json:"head_volume"`
	HeadTemperature float64 `json:"head_temperature"`
	HeadMass        float64 `json:"head_mass"`

	RodPressure    float64 `json:"rod_pressure"`
	RodVolume      float64 `json:"rod_volume"`
	RodTemperature float64 `json:"rod_temperature"`
	RodMass        float64 `json:"rod_mass"`
}

func (s State) Snapshot(c dynamo.Corner) Snapshot {
	return Snapshot{
		Corner:          c,
		Angle:           s.Angle,
		PistonRatio:     s.Stroke.Ratio,
		PistonPosition:  s.Stroke.Position,
		JRod:            s.JRod,
		HeadPressure:    s.Head.Pressure,
		HeadVolume:      s.Head.Volume,
		HeadTemperature: s.Head.Temperature,
		HeadMass:        s.Head.Mass,
		RodPressure:     s.Rod.Pressure,
		RodVolume:       s.Rod.Volume,
		RodTemperature:  s.Rod.Temperature,
		RodMass:         s.Rod.Mass,
	}
}

// Mass is the gas mass held in both chambers.
func (s Snapshot) Mass() float64 { return s.HeadMass + s.RodMass }
