package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/pneumostab/internal/corner"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
)

// column is one float field of a snapshot row.
type column struct {
	name  string
	field func(s *sim.StateSnapshot) *float64
}

var snapshotColumns = buildColumns()

func buildColumns() []column {
	cols := []column{
		{"time", func(s *sim.StateSnapshot) *float64 { return &s.Time }},
		{"tank_pressure", func(s *sim.StateSnapshot) *float64 { return &s.Tank.Pressure }},
		{"tank_volume", func(s *sim.StateSnapshot) *float64 { return &s.Tank.Volume }},
		{"tank_temperature", func(s *sim.StateSnapshot) *float64 { return &s.Tank.Temperature }},
		{"tank_mass", func(s *sim.StateSnapshot) *float64 { return &s.Tank.Mass }},
		{"transferred", func(s *sim.StateSnapshot) *float64 { return &s.Transferred }},
	}

	fields := []struct {
		name  string
		field func(c *corner.Snapshot) *float64
	}{
		{"angle", func(c *corner.Snapshot) *float64 { return &c.Angle }},
		{"ratio", func(c *corner.Snapshot) *float64 { return &c.PistonRatio }},
		{"position", func(c *corner.Snapshot) *float64 { return &c.PistonPosition }},
		{"jrod_x", func(c *corner.Snapshot) *float64 { return &c.JRod[0] }},
		{"jrod_y", func(c *corner.Snapshot) *float64 { return &c.JRod[1] }},
		{"jrod_z", func(c *corner.Snapshot) *float64 { return &c.JRod[2] }},
		{"head_pressure", func(c *corner.Snapshot) *float64 { return &c.HeadPressure }},
		{"head_volume", func(c *corner.Snapshot) *float64 { return &c.HeadVolume }},
		{"head_temperature", func(c *corner.Snapshot) *float64 { return &c.HeadTemperature }},
		{"head_mass", func(c *corner.Snapshot) *float64 { return &c.HeadMass }},
		{"rod_pressure", func(c *corner.Snapshot) *float64 { return &c.RodPressure }},
		{"rod_volume", func(c *corner.Snapshot) *float64 { return &c.RodVolume }},
		{"rod_temperature", func(c *corner.Snapshot) *float64 { return &c.RodTemperature }},
		{"rod_mass", func(c *corner.Snapshot) *float64 { return &c.RodMass }},
	}
	for _, c := range dynamo.Corners {
		for _, f := range fields {
			cols = append(cols, column{
				name:  c.String() + "_" + f.name,
				field: func(s *sim.StateSnapshot) *float64 { return f.field(&s.Corners[c]) },
			})
		}
	}
	return cols
}

// Header is the CSV header written for snapshot series.
func Header() []string {
	h := []string{"step"}
	for _, c := range snapshotColumns {
		h = append(h, c.name)
	}
	return h
}

// WriteCSV writes snapshots as CSV. Floats use the shortest exact
// representation so a read back is lossless.
func WriteCSV(w io.Writer, snaps []sim.StateSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}

	row := make([]string, len(snapshotColumns)+1)
	for i := range snaps {
		s := &snaps[i]
		row[0] = strconv.Itoa(s.Step)
		for j, c := range snapshotColumns {
			row[j+1] = strconv.FormatFloat(*c.field(s), 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a series written by WriteCSV.
func ReadCSV(r io.Reader) ([]sim.StateSnapshot, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	header := Header()
	if len(records[0]) != len(header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(header), len(records[0]))
	}
	for i, name := range header {
		if records[0][i] != name {
			return nil, fmt.Errorf("column %d: expected %q, got %q", i, name, records[0][i])
		}
	}

	snaps := make([]sim.StateSnapshot, 0, len(records)-1)
	for i, record := range records[1:] {
		var s sim.StateSnapshot
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: step: %w", i+1, err)
		}
		s.Step = step
		for j, c := range snapshotColumns {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i+1, c.name, err)
			}
			*c.field(&s) = v
		}
		for k, c := range dynamo.Corners {
			s.Corners[k].Corner = c
		}
		snaps = append(snaps, s)
	}
	return snaps, nil
}
