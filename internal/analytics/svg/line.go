package svg

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Lines renders one or more series over shared x labels.
func Lines(width, height int, labels []string, series []Series, opts LineOpts) (template.HTML, error) {
	if len(labels) == 0 {
		return "", errors.New("svg: labels required")
	}
	if len(series) == 0 {
		return "", errors.New("svg: at least one series required")
	}
	values := make([][]float64, len(series))
	for i, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("svg: series %q length must match labels", s.Label)
		}
		values[i] = s.Values
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	format := opts.FormatTick
	if format == nil {
		format = FormatTick
	}
	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", errors.New("svg: viewport too small")
	}

	minVal, maxVal := axisRange(values...)
	scale := chartHeight / (maxVal - minVal)
	step := 0.0
	if len(labels) > 1 {
		step = chartWidth / float64(len(labels)-1)
	}
	xAt := func(i int) float64 {
		if len(labels) == 1 {
			return padding + chartWidth/2
		}
		return padding + float64(i)*step
	}
	yAt := func(v float64) float64 {
		return padding + chartHeight - (v-minVal)*scale
	}

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Line chart")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Trend data")))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := padding + chartHeight - ratio*chartHeight
		value := minVal + (maxVal-minVal)*ratio
		fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor)
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(format(value)))
	}

	fmt.Fprintf(&b, "<g stroke=\"%s\" aria-hidden=\"true\">", axisColor)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding, padding, padding+chartHeight)
	fmt.Fprintf(&b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, padding+chartHeight, padding+chartWidth, padding+chartHeight)
	b.WriteString("</g>")

	base := padding + chartHeight
	for _, s := range series {
		color := fallback(s.Color, "#2563eb")
		var path strings.Builder
		for i, v := range s.Values {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, xAt(i), yAt(v))
		}
		d := strings.TrimSpace(path.String())
		if s.Fill != "" {
			fmt.Fprintf(&b, "<path d=\"%s L%.2f %.2f L%.2f %.2f Z\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", d, xAt(len(s.Values)-1), base, xAt(0), base, s.Fill)
		}
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\" data-series=\"%s\"></path>", d, color, template.HTMLEscapeString(s.Label))
		if opts.ShowDots {
			for i, v := range s.Values {
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"><title>%s %s: %s</title></circle>", xAt(i), yAt(v), color,
					template.HTMLEscapeString(s.Label), template.HTMLEscapeString(labels[i]), template.HTMLEscapeString(format(v)))
			}
		}
	}

	for i, label := range labels {
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", xAt(i), base+16, axisColor, template.HTMLEscapeString(label))
	}

	legendX := padding
	for _, s := range series {
		fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, padding/2-9, fallback(s.Color, "#2563eb"))
		fmt.Fprintf(&b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s</text>", legendX+14, padding/2, axisColor, template.HTMLEscapeString(s.Label))
		legendX += 100
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
