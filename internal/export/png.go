package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Series picks one value per corner, plus an optional receiver value, out
// of a snapshot.
type Series struct {
	Title  string
	YLabel string
	Corner func(s *sim.StateSnapshot, c dynamo.Corner) float64
	Tank   func(s *sim.StateSnapshot) float64
}

var SeriesKinds = map[string]Series{
	"pressure": {
		Title:  "Head chamber pressure",
		YLabel: "p (kPa)",
		Corner: func(s *sim.StateSnapshot, c dynamo.Corner) float64 { return s.Corners[c].HeadPressure / 1e3 },
		Tank:   func(s *sim.StateSnapshot) float64 { return s.Tank.Pressure / 1e3 },
	},
	"rod-pressure": {
		Title:  "Rod chamber pressure",
		YLabel: "p (kPa)",
		Corner: func(s *sim.StateSnapshot, c dynamo.Corner) float64 { return s.Corners[c].RodPressure / 1e3 },
		Tank:   func(s *sim.StateSnapshot) float64 { return s.Tank.Pressure / 1e3 },
	},
	"stroke": {
		Title:  "Piston ratio",
		YLabel: "ratio",
		Corner: func(s *sim.StateSnapshot, c dynamo.Corner) float64 { return s.Corners[c].PistonRatio },
	},
	"temperature": {
		Title:  "Head chamber temperature",
		YLabel: "T (K)",
		Corner: func(s *sim.StateSnapshot, c dynamo.Corner) float64 { return s.Corners[c].HeadTemperature },
		Tank:   func(s *sim.StateSnapshot) float64 { return s.Tank.Temperature },
	},
}

func ListSeries() []string {
	names := make([]string, 0, len(SeriesKinds))
	for name := range SeriesKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPlot builds a time plot of one series kind.
func NewPlot(kind string, snaps []sim.StateSnapshot) (*plot.Plot, error) {
	series, ok := SeriesKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown series: %s", kind)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no snapshots to plot")
	}

	p := plot.New()
	p.Title.Text = series.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = series.YLabel
	p.Add(plotter.NewGrid())

	for i, c := range dynamo.Corners {
		pts := make(plotter.XYs, len(snaps))
		for j := range snaps {
			pts[j].X = snaps[j].Time
			pts[j].Y = series.Corner(&snaps[j], c)
		}
		if err := addLine(p, c.String(), pts, i); err != nil {
			return nil, err
		}
	}

	if series.Tank != nil {
		pts := make(plotter.XYs, len(snaps))
		for j := range snaps {
			pts[j].X = snaps[j].Time
			pts[j].Y = series.Tank(&snaps[j])
		}
		if err := addLine(p, "tank", pts, dynamo.NumCorners); err != nil {
			return nil, err
		}
	}

	p.Legend.Top = true
	return p, nil
}

func addLine(p *plot.Plot, name string, pts plotter.XYs, i int) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(i)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// WritePNG renders p as a PNG of the given size in inches.
func WritePNG(w io.Writer, p *plot.Plot, widthIn, heightIn float64) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SavePNG plots kind and writes it to filename, creating parent
// directories as needed.
func SavePNG(filename, kind string, snaps []sim.StateSnapshot) error {
	p, err := NewPlot(kind, snaps)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	if err := WritePNG(f, p, 8, 5); err != nil {
		return err
	}
	return f.Close()
}
