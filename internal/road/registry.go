package road

import (
	"fmt"
	"sort"

	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
)

type Registry struct {
	profiles map[string]func(Params) sim.Profile
}

func NewRegistry() *Registry {
	r := &Registry{
		profiles: make(map[string]func(Params) sim.Profile),
	}

	r.profiles["flat"] = func(p Params) sim.Profile { return NewFlat(p) }
	r.profiles["sine"] = func(p Params) sim.Profile { return NewSine(p) }
	r.profiles["bump"] = func(p Params) sim.Profile { return NewBump(p) }
	r.profiles["rough"] = func(p Params) sim.Profile { return NewRough(p) }

	return r
}

func (r *Registry) Get(name string, p Params) (sim.Profile, error) {
	if name == "" {
		name = "flat"
	}
	fn, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown road profile: %s", dynamo.ErrInvalidConfiguration, name)
	}
	if name != "flat" && !dynamo.Positive(p.Frequency) {
		return nil, fmt.Errorf("%w: road frequency must be positive, got %g", dynamo.ErrInvalidConfiguration, p.Frequency)
	}
	return fn(p), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromScenario builds the road profile a scenario describes.
func (r *Registry) FromScenario(sc *config.Scenario) (sim.Profile, error) {
	p := Params{
		Rest:      sc.RestAngles(),
		Amplitude: sc.Road.Amplitude,
		Frequency: sc.Road.Frequency,
		Speed:     sc.Road.Speed,
		Wheelbase: sc.Road.Wheelbase,
		BumpTime:  sc.Road.BumpTime,
		Seed:      sc.Seed,
	}
	for _, name := range sc.Road.ValveOpen {
		ch, err := dynamo.ParseChamber(name)
		if err != nil {
			return nil, err
		}
		if ch == dynamo.Rod {
			p.Valves.Rod = true
		} else {
			p.Valves.Head = true
		}
	}
	return r.Get(sc.Road.Profile, p)
}
