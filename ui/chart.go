package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"salesassist/api"
	"salesassist/render"
)

const (
	maxLabelWidth = 24
	minBarWidth   = 10
	barRune       = "█"
	swatchRune    = "■"
)

// renderChart draws a chart configuration as horizontal bars. Radial chart
// types show each slice with its share of the first dataset.
func renderChart(cfg render.ChartConfig, width int) string {
	var b strings.Builder
	if cfg.Title != "" {
		b.WriteString(TitleStyle.Render(cfg.Title) + "\n")
	}
	if len(cfg.Data.Datasets) == 0 || len(cfg.Data.Labels) == 0 {
		b.WriteString(DimStyle.Render("(no data)"))
		return b.String()
	}

	if render.PerSliceChart(cfg.Type) {
		b.WriteString(renderSlices(cfg, width))
	} else {
		b.WriteString(renderBars(cfg, width))
	}
	return b.String()
}

func renderBars(cfg render.ChartConfig, width int) string {
	labels := chartLabels(cfg.Data.Labels)
	labelWidth := widestLabel(labels)

	maxValue := 0.0
	valueWidth := 0
	for _, ds := range cfg.Data.Datasets {
		for _, v := range ds.Data {
			maxValue = math.Max(maxValue, v)
			valueWidth = max(valueWidth, len(formatValue(v)))
		}
	}
	barWidth := max(minBarWidth, width-labelWidth-valueWidth-3)

	var lines []string
	if len(cfg.Data.Datasets) > 1 {
		var legend []string
		for d, ds := range cfg.Data.Datasets {
			legend = append(legend, colorFor(d).Render(swatchRune)+" "+ds.Label)
		}
		lines = append(lines, strings.Join(legend, "  "))
	}

	for i, label := range labels {
		for d, ds := range cfg.Data.Datasets {
			name := ""
			if d == 0 {
				name = label
			}
			value := 0.0
			if i < len(ds.Data) {
				value = ds.Data[i]
			}
			bar := colorFor(d).Render(strings.Repeat(barRune, scaledLength(value, maxValue, barWidth)))
			lines = append(lines, fmt.Sprintf("%s %s %s", fitCell(name, labelWidth), bar, formatValue(value)))
		}
	}
	return strings.Join(lines, "\n")
}

func renderSlices(cfg render.ChartConfig, width int) string {
	labels := chartLabels(cfg.Data.Labels)
	labelWidth := widestLabel(labels)
	data := cfg.Data.Datasets[0].Data

	total := 0.0
	maxValue := 0.0
	for _, v := range data {
		if v > 0 {
			total += v
		}
		maxValue = math.Max(maxValue, v)
	}
	barWidth := max(minBarWidth, width-labelWidth-18)

	var lines []string
	for i, label := range labels {
		value := 0.0
		if i < len(data) {
			value = data[i]
		}
		share := 0.0
		if total > 0 && value > 0 {
			share = value / total * 100
		}
		style := colorFor(i)
		bar := style.Render(strings.Repeat(barRune, scaledLength(value, maxValue, barWidth)))
		lines = append(lines, fmt.Sprintf("%s %s %s %s (%.1f%%)",
			style.Render(swatchRune), fitCell(label, labelWidth), bar, formatValue(value), share))
	}
	return strings.Join(lines, "\n")
}

func chartLabels(labels []any) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = singleLine(api.CellText(l))
	}
	return out
}

func widestLabel(labels []string) int {
	w := 1
	for _, l := range labels {
		w = max(w, runewidth.StringWidth(l))
	}
	return min(w, maxLabelWidth)
}

// scaledLength maps value onto [0, width]. Non-positive values draw nothing.
func scaledLength(value, maxValue float64, width int) int {
	if value <= 0 || maxValue <= 0 {
		return 0
	}
	n := int(math.Round(value / maxValue * float64(width)))
	if n == 0 {
		n = 1
	}
	return n
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func colorFor(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(render.PaletteColor(i).Hex()))
}
