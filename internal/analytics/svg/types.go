package svg

// Series is one named line of a line chart.
type Series struct {
	Label  string
	Values []float64
	Color  string
	Fill   string
}

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	FormatTick  func(float64) string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	SeriesLabel string
	Color       string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	FormatTick  func(float64) string
}

// DonutOpts customises the proportional breakdown renderer.
type DonutOpts struct {
	Title       string
	Description string
	Palette     []string
	TextColor   string
	FormatValue func(float64) string
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 40.0
	DefaultTicks   = 5
	DefaultDonut   = 260
)
