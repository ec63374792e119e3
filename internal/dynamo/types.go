package dynamo

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a point or direction in frame coordinates: X lateral, Y vertical,
// Z longitudinal. Geometry works in millimetres.
type Vec3 = mgl64.Vec3

// Unit factors for the millimetre boundary.
const (
	MM  = 1e-3
	MM2 = 1e-6
	MM3 = 1e-9
)

// StandardGamma is the heat capacity ratio of dry air.
const StandardGamma = 1.4

// AirGasConstant is the specific gas constant of dry air in J/(kg·K).
const AirGasConstant = 287.058

type Corner int

const (
	FrontLeft Corner = iota
	FrontRight
	RearLeft
	RearRight
)

// NumCorners is the number of suspension corners.
const NumCorners = 4

var cornerNames = [NumCorners]string{"fl", "fr", "rl", "rr"}

// Corners lists all corners in snapshot order.
var Corners = [NumCorners]Corner{FrontLeft, FrontRight, RearLeft, RearRight}

func (c Corner) Valid() bool { return c >= 0 && c < NumCorners }

func (c Corner) String() string {
	if !c.Valid() {
		return fmt.Sprintf("corner(%d)", int(c))
	}
	return cornerNames[c]
}

func (c Corner) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConfiguration, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Corner) UnmarshalText(b []byte) error {
	parsed, err := ParseCorner(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Left reports whether the corner sits on the left side of the frame.
func (c Corner) Left() bool { return c == FrontLeft || c == RearLeft }

// Front reports whether the corner sits on the front axle.
func (c Corner) Front() bool { return c == FrontLeft || c == FrontRight }

// ParseCorner accepts the short names fl, fr, rl, rr (case-insensitive).
func ParseCorner(s string) (Corner, error) {
	for i, name := range cornerNames {
		if strings.EqualFold(s, name) {
			return Corner(i), nil
		}
	}
	return -1, fmt.Errorf("%w: unknown corner %q", ErrInvalidConfiguration, s)
}

type Chamber int

const (
	Head Chamber = iota
	Rod
)

func (c Chamber) String() string {
	switch c {
	case Head:
		return "head"
	case Rod:
		return "rod"
	default:
		return fmt.Sprintf("chamber(%d)", int(c))
	}
}

func ParseChamber(s string) (Chamber, error) {
	switch strings.ToLower(s) {
	case "head":
		return Head, nil
	case "rod":
		return Rod, nil
	}
	return -1, fmt.Errorf("%w: unknown chamber %q", ErrInvalidConfiguration, s)
}

// Mode selects the thermodynamic law applied to cylinder volume changes.
type Mode int

const (
	Isothermal Mode = iota
	Adiabatic
)

func (m Mode) String() string {
	switch m {
	case Isothermal:
		return "isothermal"
	case Adiabatic:
		return "adiabatic"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "isothermal", "iso":
		return Isothermal, nil
	case "adiabatic":
		return Adiabatic, nil
	}
	return -1, fmt.Errorf("%w: unknown gas mode %q", ErrInvalidConfiguration, s)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Positive reports whether v is finite and strictly greater than zero.
func Positive(v float64) bool {
	return Finite(v) && v > 0
}

// VecFinite reports whether all components of v are finite.
func VecFinite(v Vec3) bool {
	return Finite(v[0]) && Finite(v[1]) && Finite(v[2])
}
