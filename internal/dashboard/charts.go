package dashboard

import (
	"html/template"

	"github.com/shopspring/decimal"

	"sgfcp/internal/analytics"
	"sgfcp/internal/analytics/svg"
)

// Palette is the chart colour set of a theme.
type Palette struct {
	Primary      string
	PrimaryBg    string
	PrimaryBar   string
	Secondary    string
	SecondaryBg  string
	SecondaryBar string
	Doughnut     []string
	Axis         string
	Grid         string
	Text         string
}

// PaletteFor returns the light or dark palette.
func PaletteFor(dark bool) Palette {
	if dark {
		return Palette{
			Primary:      "#fca311",
			PrimaryBg:    "rgba(252, 163, 17, 0.25)",
			PrimaryBar:   "rgba(252, 163, 17, 0.8)",
			Secondary:    "#6b9bd1",
			SecondaryBg:  "rgba(107, 155, 209, 0.2)",
			SecondaryBar: "rgba(107, 155, 209, 0.8)",
			Doughnut:     []string{"#fca311", "#6b9bd1", "#ffd58a", "#8ba9cc", "#f7b955", "#4a7bb7"},
			Axis:         "#cbd5e1",
			Grid:         "#334155",
			Text:         "#e2e8f0",
		}
	}
	return Palette{
		Primary:      "#fca311",
		PrimaryBg:    "rgba(252, 163, 17, 0.25)",
		PrimaryBar:   "rgba(252, 163, 17, 0.8)",
		Secondary:    "#000a24",
		SecondaryBg:  "rgba(0, 10, 36, 0.2)",
		SecondaryBar: "rgba(0, 10, 36, 0.7)",
		Doughnut:     []string{"#fca311", "#1f3b73", "#ffd58a", "#6b7a99", "#f7b955", "#101a35"},
		Axis:         "#475569",
		Grid:         "#e2e8f0",
		Text:         "#1e293b",
	}
}

// Chart is one rendered chart card.
type Chart struct {
	ID       ChartID
	Title    string
	SVG      template.HTML
	Empty    bool
	Expanded bool
}

var chartTitles = map[ChartID]string{
	ChartRevenue:   "Ingresos vs gastos",
	ChartExpenses:  "Gastos por tipo",
	ChartTripState: "Viajes por estado",
	ChartClients:   "Top clientes",
	ChartAdvances:  "Anticipos por chofer",
}

// ChartTitle returns the card title of id.
func ChartTitle(id ChartID) string {
	if t, ok := chartTitles[id]; ok {
		return t
	}
	return "Grafico"
}

type chartInputs struct {
	series     analytics.Series
	byType     []analytics.Bucket
	byState    []analytics.Count
	topClients []analytics.Bucket
	topDrivers []analytics.Bucket
}

func floats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}

func bucketParts(buckets []analytics.Bucket) ([]float64, []string) {
	values := make([]float64, len(buckets))
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		values[i] = b.Total.InexactFloat64()
		labels[i] = b.Label
	}
	return values, labels
}

func countParts(counts []analytics.Count) ([]float64, []string) {
	values := make([]float64, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = c.Label
	}
	return values, labels
}

func countTick(v float64) string { return Count(int(v)) }

// renderChart draws id from in. Charts without data come back Empty.
func renderChart(id ChartID, in chartInputs, p Palette) (Chart, error) {
	c := Chart{ID: id, Title: ChartTitle(id)}
	var (
		html template.HTML
		err  error
	)
	switch id {
	case ChartRevenue:
		if len(in.series.Labels) == 0 {
			c.Empty = true
			return c, nil
		}
		html, err = svg.Lines(0, 0, in.series.Labels, []svg.Series{
			{Label: "Ingresos", Values: floats(in.series.Revenue), Color: p.Primary, Fill: p.PrimaryBg},
			{Label: "Gastos", Values: floats(in.series.Expenses), Color: p.Secondary, Fill: p.SecondaryBg},
		}, svg.LineOpts{
			Title:      c.Title,
			AxisColor:  p.Axis,
			GridColor:  p.Grid,
			ShowDots:   true,
			FormatTick: currencyFloat,
		})

	case ChartExpenses:
		values, labels := bucketParts(in.byType)
		if len(values) == 0 {
			c.Empty = true
			return c, nil
		}
		html, err = svg.Donut(0, values, labels, svg.DonutOpts{
			Title:       c.Title,
			Palette:     p.Doughnut,
			TextColor:   p.Text,
			FormatValue: currencyFloat,
		})

	case ChartTripState:
		values, labels := countParts(in.byState)
		if len(values) == 0 {
			c.Empty = true
			return c, nil
		}
		html, err = svg.Bars(0, 0, values, labels, svg.BarOpts{
			Title:       c.Title,
			SeriesLabel: "Viajes",
			Color:       p.SecondaryBar,
			AxisColor:   p.Axis,
			GridColor:   p.Grid,
			FormatTick:  countTick,
		})

	case ChartClients, ChartAdvances:
		buckets, label, color := in.topClients, "Ingresos", p.PrimaryBar
		if id == ChartAdvances {
			buckets, label, color = in.topDrivers, "Anticipos", p.SecondaryBar
		}
		values, labels := bucketParts(buckets)
		if len(values) == 0 {
			c.Empty = true
			return c, nil
		}
		html, err = svg.Bars(0, 0, values, labels, svg.BarOpts{
			Title:       c.Title,
			SeriesLabel: label,
			Color:       color,
			AxisColor:   p.Axis,
			GridColor:   p.Grid,
			FormatTick:  currencyFloat,
		})
	}
	if err != nil {
		return c, err
	}
	c.SVG = html
	return c, nil
}
