package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

var defaultPalette = []string{"#fca311", "#6b9bd1", "#ffd58a", "#8ba9cc", "#f7b955", "#4a7bb7"}

// Donut renders a proportional breakdown with a legend. Non-positive
// values are drawn as zero-width slices but still listed.
func Donut(size int, values []float64, labels []string, opts DonutOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", errors.New("svg: values required")
	}
	if len(values) != len(labels) {
		return "", errors.New("svg: labels length must match values")
	}
	if size <= 0 {
		size = DefaultDonut
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = defaultPalette
	}
	format := opts.FormatValue
	if format == nil {
		format = FormatTick
	}
	textColor := fallback(opts.TextColor, "#475569")

	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}

	legendWidth := 220
	width := size + legendWidth
	height := size
	if rows := len(values)*18 + 16; rows > height {
		height = rows
	}
	cx, cy := float64(size)/2, float64(size)/2
	outer := float64(size)/2 - 8
	inner := outer * 0.58

	titleID := makeID(opts.Title, "donut-title")
	descID := makeID(opts.Title, "donut-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Donut chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Proportional breakdown")))

	if total <= 0 {
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\" opacity=\"0.3\"></circle>", cx, cy, (outer+inner)/2, textColor, outer-inner)
	}

	angle := -math.Pi / 2
	for i, v := range values {
		color := palette[i%len(palette)]
		if total <= 0 || v <= 0 {
			continue
		}
		share := v / total
		if share >= 1-1e-9 {
			// A single full slice cannot be drawn as an arc.
			fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\"><title>%s: %s</title></circle>",
				cx, cy, (outer+inner)/2, color, outer-inner, template.HTMLEscapeString(labels[i]), template.HTMLEscapeString(format(v)))
			break
		}
		sweep := share * 2 * math.Pi
		end := angle + sweep
		large := 0
		if sweep > math.Pi {
			large = 1
		}
		x1, y1 := cx+outer*math.Cos(angle), cy+outer*math.Sin(angle)
		x2, y2 := cx+outer*math.Cos(end), cy+outer*math.Sin(end)
		x3, y3 := cx+inner*math.Cos(end), cy+inner*math.Sin(end)
		x4, y4 := cx+inner*math.Cos(angle), cy+inner*math.Sin(angle)
		fmt.Fprintf(&b, "<path d=\"M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z\" fill=\"%s\"><title>%s: %s</title></path>",
			x1, y1, outer, outer, large, x2, y2, x3, y3, inner, inner, large, x4, y4, color,
			template.HTMLEscapeString(labels[i]), template.HTMLEscapeString(format(v)))
		angle = end
	}

	legendX := float64(size) + 12
	for i, label := range labels {
		y := 16 + float64(i)*18
		pct := 0.0
		if total > 0 && values[i] > 0 {
			pct = values[i] / total * 100
		}
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, y-9, palette[i%len(palette)])
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s · %.1f%%</text>", legendX+14, y, textColor, template.HTMLEscapeString(truncateLabel(label, 20)), pct)
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
