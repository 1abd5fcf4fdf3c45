package render

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mpapenbr/beyond-the-apex/pkg/telemetry/sector"
)

// SectorColors are used for sector 1 to 3 on the track map
var SectorColors = [sector.NumSectors]color.RGBA{
	{R: 0xff, G: 0x63, B: 0x84, A: 0xff},
	{R: 0x36, G: 0xa2, B: 0xeb, A: 0xff},
	{R: 0xff, G: 0xcd, B: 0x56, A: 0xff},
}

var highlightColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

type trackMapConfig struct {
	width  vg.Length
	height vg.Length
	format string
	title  string
}

type TrackMapOption func(*trackMapConfig)

func WithSize(width, height vg.Length) TrackMapOption {
	return func(c *trackMapConfig) {
		c.width = width
		c.height = height
	}
}

// WithFormat sets the image format, any format supported by plot (png, svg, pdf...)
func WithFormat(format string) TrackMapOption {
	return func(c *trackMapConfig) {
		c.format = format
	}
}

func WithTitle(title string) TrackMapOption {
	return func(c *trackMapConfig) {
		c.title = title
	}
}

// TrackMap draws the segmented track as three colored lines plus the
// highlighted position if present.
func TrackMap(w io.Writer, res sector.Result, opts ...TrackMapOption) error {
	cfg := &trackMapConfig{width: 6 * vg.Inch, height: 6 * vg.Inch, format: "png"}
	for _, opt := range opts {
		opt(cfg)
	}
	p, err := trackPlot(res, cfg.title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(cfg.width, cfg.height, cfg.format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func trackPlot(res sector.Result, title string) (*plot.Plot, error) {
	points := 0
	for _, s := range res.Sectors {
		points += len(s)
	}
	if points == 0 {
		return nil, ErrNothingToRender
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.BackgroundColor = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}

	for k, s := range res.Sectors {
		if len(s) < 2 {
			continue
		}
		xys := make(plotter.XYs, len(s))
		for i, pt := range s {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = SectorColors[k]
		line.Width = vg.Points(3)
		p.Add(line)
	}
	if h := res.Highlight; h != nil {
		sc, err := plotter.NewScatter(plotter.XYs{{X: h.X, Y: h.Y}})
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = highlightColor
		sc.GlyphStyle.Radius = vg.Points(5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}
	return p, nil
}
