package render

import (
	"fmt"
	"strconv"

	"salesassist/api"
)

// RGB is a palette entry.
type RGB struct {
	R, G, B uint8
}

func (c RGB) RGBA(alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(alpha, 'f', -1, 64))
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is cycled by dataset index (or by slice for radial charts).
var Palette = []RGB{
	{59, 130, 246},
	{16, 185, 129},
	{249, 115, 22},
	{139, 92, 246},
	{236, 72, 153},
	{245, 158, 11},
	{20, 184, 166},
	{239, 68, 68},
	{168, 85, 247},
	{34, 197, 94},
}

const (
	fillAlpha   = 0.8
	borderAlpha = 1
)

// PaletteColor returns the palette entry for position i, wrapping around.
func PaletteColor(i int) RGB {
	return Palette[i%len(Palette)]
}

// PerSliceChart reports whether a chart colours each slice rather than each dataset.
func PerSliceChart(chartType string) bool {
	switch chartType {
	case api.ChartPie, api.ChartDoughnut, api.ChartPolarArea:
		return true
	}
	return false
}

// CartesianChart reports whether a chart type gets x/y axes.
func CartesianChart(chartType string) bool {
	switch chartType {
	case api.ChartPie, api.ChartDoughnut, api.ChartPolarArea, api.ChartRadar:
		return false
	}
	return true
}

// Colors is either one colour for a whole dataset or a list applied per slice.
type Colors struct {
	Single   string
	PerSlice []string
}

func (c Colors) MarshalJSON() ([]byte, error) {
	if c.PerSlice != nil {
		return jsonMarshal(c.PerSlice)
	}
	return jsonMarshal(c.Single)
}

// At returns the colour used for data point i.
func (c Colors) At(i int) string {
	if len(c.PerSlice) > 0 {
		return c.PerSlice[i%len(c.PerSlice)]
	}
	return c.Single
}

type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor Colors    `json:"backgroundColor"`
	BorderColor     Colors    `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
	Tension         float64   `json:"tension"`
}

type ChartData struct {
	Labels   []any          `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type Font struct {
	Size int `json:"size"`
}

type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position"`
}

type Tooltip struct {
	Enabled         bool   `json:"enabled"`
	BackgroundColor string `json:"backgroundColor"`
	Padding         int    `json:"padding"`
	TitleFont       Font   `json:"titleFont"`
	BodyFont        Font   `json:"bodyFont"`
}

type Plugins struct {
	Legend  Legend  `json:"legend"`
	Tooltip Tooltip `json:"tooltip"`
}

type Ticks struct {
	Font Font `json:"font"`
}

type Scale struct {
	BeginAtZero bool  `json:"beginAtZero,omitempty"`
	Ticks       Ticks `json:"ticks"`
}

type ChartOptions struct {
	Responsive          bool             `json:"responsive"`
	MaintainAspectRatio bool             `json:"maintainAspectRatio"`
	AspectRatio         float64          `json:"aspectRatio"`
	Plugins             Plugins          `json:"plugins"`
	Scales              map[string]Scale `json:"scales"`
}

// ChartConfig is the declarative description handed to a charting backend.
type ChartConfig struct {
	Type    string       `json:"type"`
	Title   string       `json:"-"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

// HasAxes reports whether the configuration carries cartesian scales.
func (c ChartConfig) HasAxes() bool {
	return len(c.Options.Scales) > 0
}

// BuildChartConfig derives the chart configuration for a diagram result.
func BuildChartConfig(result api.Result) ChartConfig {
	perSlice := PerSliceChart(result.ChartType)

	datasets := make([]ChartDataset, len(result.Datasets))
	for i, ds := range result.Datasets {
		var bg, border Colors
		if perSlice {
			bg.PerSlice = make([]string, len(Palette))
			border.PerSlice = make([]string, len(Palette))
			for j, c := range Palette {
				bg.PerSlice[j] = c.RGBA(fillAlpha)
				border.PerSlice[j] = c.RGBA(borderAlpha)
			}
		} else {
			c := PaletteColor(i)
			bg.Single = c.RGBA(fillAlpha)
			border.Single = c.RGBA(borderAlpha)
		}

		tension := 0.0
		if result.ChartType == api.ChartLine {
			tension = 0.4
		}

		data := ds.Data
		if data == nil {
			data = []float64{}
		}
		datasets[i] = ChartDataset{
			Label:           ds.Label,
			Data:            data,
			BackgroundColor: bg,
			BorderColor:     border,
			BorderWidth:     2,
			Tension:         tension,
		}
	}

	scales := map[string]Scale{}
	if CartesianChart(result.ChartType) {
		scales["y"] = Scale{BeginAtZero: true, Ticks: Ticks{Font: Font{Size: 11}}}
		scales["x"] = Scale{Ticks: Ticks{Font: Font{Size: 11}}}
	}

	labels := result.Labels
	if labels == nil {
		labels = []any{}
	}

	return ChartConfig{
		Type:  result.ChartType,
		Title: result.Title,
		Data: ChartData{
			Labels:   labels,
			Datasets: datasets,
		},
		Options: ChartOptions{
			Responsive:          true,
			MaintainAspectRatio: true,
			AspectRatio:         2,
			Plugins: Plugins{
				Legend: Legend{Display: true, Position: "top"},
				Tooltip: Tooltip{
					Enabled:         true,
					BackgroundColor: "rgba(0, 0, 0, 0.8)",
					Padding:         12,
					TitleFont:       Font{Size: 14},
					BodyFont:        Font{Size: 13},
				},
			},
			Scales: scales,
		},
	}
}
