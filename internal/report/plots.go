package report

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart file names written by WritePlots.
const (
	AgeHistogramFile = "age_histogram.png"
	AgeBoxplotFile   = "age_boxplot_by_year.png"
	SexByYearFile    = "sex_by_year.png"
)

// ErrNoData indicates a chart with nothing to draw.
var ErrNoData = errors.New("no data to plot")

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
	histBins   = 20
)

// PlotData is everything the three charts need.
type PlotData struct {
	Ages      []float64
	AgeByYear map[int][]float64
	SexByYear map[int]map[string]int
}

// WritePlots renders the age histogram, the age-by-year boxplot and the
// sex-by-year bar chart as PNG files in dir. A chart without data is skipped
// and reported through the returned warnings.
func WritePlots(dir string, data PlotData) (written []string, warnings []string, err error) {
	charts := []struct {
		file string
		draw func(path string, data PlotData) error
	}{
		{AgeHistogramFile, ageHistogram},
		{AgeBoxplotFile, ageBoxplot},
		{SexByYearFile, sexBars},
	}
	for _, c := range charts {
		path := filepath.Join(dir, c.file)
		if err := c.draw(path, data); err != nil {
			if errors.Is(err, ErrNoData) {
				warnings = append(warnings, fmt.Sprintf("%s not written: %v", c.file, err))
				continue
			}
			return written, warnings, fmt.Errorf("plot %s: %w", c.file, err)
		}
		written = append(written, path)
	}
	return written, warnings, nil
}

func ageHistogram(path string, data PlotData) error {
	vals := finite(data.Ages)
	if len(vals) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Distribuição de idade"
	p.X.Label.Text = "Idade"
	p.Y.Label.Text = "Frequência"
	h, err := plotter.NewHist(vals, histBins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return p.Save(plotWidth, plotHeight, path)
}

func ageBoxplot(path string, data PlotData) error {
	years := make([]int, 0, len(data.AgeByYear))
	for y, v := range data.AgeByYear {
		if len(finite(v)) > 0 {
			years = append(years, y)
		}
	}
	if len(years) == 0 {
		return ErrNoData
	}
	sort.Ints(years)
	p := plot.New()
	p.Title.Text = "Idade por ano"
	p.Y.Label.Text = "Idade"
	names := make([]string, len(years))
	for i, y := range years {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), finite(data.AgeByYear[y]))
		if err != nil {
			return err
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
		names[i] = strconv.Itoa(y)
	}
	p.NominalX(names...)
	return p.Save(plotWidth, plotHeight, path)
}

func sexBars(path string, data PlotData) error {
	years := make([]int, 0, len(data.SexByYear))
	catSet := map[string]struct{}{}
	for y, counts := range data.SexByYear {
		if len(counts) == 0 {
			continue
		}
		years = append(years, y)
		for c := range counts {
			catSet[c] = struct{}{}
		}
	}
	if len(years) == 0 {
		return ErrNoData
	}
	sort.Ints(years)
	cats := make([]string, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	p := plot.New()
	p.Title.Text = "Distribuição de sexo por ano"
	p.Y.Label.Text = "Notificações"
	p.Legend.Top = true
	width := vg.Points(18)
	for i, c := range cats {
		vals := make(plotter.Values, len(years))
		for j, y := range years {
			vals[j] = float64(data.SexByYear[y][c])
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = width * vg.Length(float64(i)-float64(len(cats)-1)/2)
		p.Add(bars)
		p.Legend.Add(c, bars)
	}
	names := make([]string, len(years))
	for i, y := range years {
		names[i] = strconv.Itoa(y)
	}
	p.NominalX(names...)
	return p.Save(plotWidth, plotHeight, path)
}

func finite(values []float64) plotter.Values {
	out := make(plotter.Values, 0, len(values))
	for _, x := range values {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
