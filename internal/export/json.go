package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/sim"
	"github.com/san-kum/pneumostab/internal/storage"
)

// Setup is the part of a scenario needed to read a run without its yaml.
type Setup struct {
	Mode       string   `json:"mode"`
	Road       string   `json:"road"`
	Seed       int64    `json:"seed"`
	FlowRate   float64  `json:"flow_rate"`
	ValveLines []string `json:"valve_lines"`
}

// Summarize condenses sc. A nil scenario gives a nil Setup.
func Summarize(sc *config.Scenario) *Setup {
	if sc == nil {
		return nil
	}
	s := &Setup{
		Mode:       sc.Gas.Mode,
		Road:       sc.Road.Profile,
		Seed:       sc.Seed,
		FlowRate:   sc.Valves.FlowRate,
		ValveLines: make([]string, 0, len(sc.Valves.Lines)),
	}
	if s.Mode == "" {
		s.Mode = "isothermal"
	}
	if s.Road == "" {
		s.Road = "flat"
	}
	for _, l := range sc.Valves.Lines {
		s.ValveLines = append(s.ValveLines, l.Corner+"/"+l.Chamber)
	}
	return s
}

type ExportData struct {
	ID        string              `json:"id,omitempty"`
	Scenario  string              `json:"scenario"`
	Setup     *Setup              `json:"setup,omitempty"`
	Dt        float64             `json:"dt"`
	Duration  float64             `json:"duration"`
	Steps     int                 `json:"steps"`
	Error     string              `json:"error,omitempty"`
	Metrics   map[string]float64  `json:"metrics"`
	Snapshots []sim.StateSnapshot `json:"snapshots"`
}

// JSON writes a stored run as one indented document. sc may be nil.
func JSON(w io.Writer, meta *storage.RunMetadata, sc *config.Scenario, snaps []sim.StateSnapshot) error {
	data := ExportData{
		ID:        meta.ID,
		Scenario:  meta.Scenario,
		Setup:     Summarize(sc),
		Dt:        meta.Dt,
		Duration:  meta.Duration,
		Steps:     meta.Steps,
		Error:     meta.Error,
		Metrics:   meta.Metrics,
		Snapshots: snaps,
	}
	if data.Snapshots == nil {
		data.Snapshots = []sim.StateSnapshot{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
