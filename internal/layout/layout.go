// Package layout estimates the overlay's size for a window list so the
// window can be placed before it is painted.
package layout

import (
	"math"

	"github.com/bryanchriswhite/qalttab/internal/config"
	"github.com/bryanchriswhite/qalttab/internal/window"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// MaxNameRunes is the longest window name rendered before truncation
const MaxNameRunes = 30

// groupPadding is the inner margin of one entry's box
const groupPadding = 6.0

// TruncateName shortens long window names to MaxNameRunes runes
func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= MaxNameRunes {
		return name
	}
	return string(runes[:MaxNameRunes])
}

// Estimator measures entries with bitmap font metrics scaled to the
// configured font sizes
type Estimator struct {
	face font.Face

	orientation config.Orientation
	items       []config.UIItem

	textSize   float64
	iconSize   float64
	iconHeight float64

	width     float64
	maxHeight float64
	spacing   float64
	stroke    float64
	margin    float64
}

// NewEstimator builds an estimator from the layout section of cfg
func NewEstimator(cfg *config.Config) *Estimator {
	return &Estimator{
		face:        basicfont.Face7x13,
		orientation: cfg.UI.Orientation,
		items:       cfg.UI.Items,
		textSize:    cfg.Fonts.Text.Size,
		iconSize:    cfg.Fonts.Icon.Size,
		iconHeight:  cfg.Icons.VisibleSize,
		width:       cfg.Sizes.Window.Width,
		maxHeight:   cfg.Sizes.Window.Height,
		spacing:     cfg.Sizes.GroupSpacing,
		stroke:      cfg.Sizes.GroupStrokeWidth,
		margin:      cfg.Sizes.WindowMargin,
	}
}

// Width is the overlay width in pixels
func (e *Estimator) Width() int {
	return int(e.width)
}

// Height is the placement height: the content height capped at the maximum,
// plus window margins and the entry stroke
func (e *Estimator) Height(windows window.List) int {
	content := math.Min(e.ContentHeight(windows), e.maxHeight)
	return int(content + 2*e.margin + e.stroke)
}

// ContentHeight is the unclamped height of the rendered list
func (e *Estimator) ContentHeight(windows window.List) float64 {
	if len(windows) == 0 {
		return 0
	}

	if e.orientation == config.OrientationHorizontal {
		tallest := 0.0
		for _, w := range windows {
			tallest = math.Max(tallest, e.entryHeight(w))
		}
		return tallest
	}

	total := 0.0
	for _, w := range windows {
		total += e.entryHeight(w)
	}
	return total + float64(len(windows)-1)*e.spacing
}

func (e *Estimator) entryHeight(w window.Window) float64 {
	h := 2 * groupPadding
	for _, item := range e.items {
		switch item {
		case config.UIItemIcon:
			h += e.iconHeight
		case config.UIItemName:
			h += e.textHeight(TruncateName(w.Name()), e.textSize)
		case config.UIItemGroupName:
			h += e.textHeight(w.GroupName(), e.textSize)
		case config.UIItemGroupLabel:
			h += e.textHeight(w.GroupLabel(), e.iconSize)
		}
	}
	return h
}

// textHeight is the wrapped height of one label
func (e *Estimator) textHeight(text string, size float64) float64 {
	lineHeight := math.Ceil(size)
	scale := size / float64(e.face.Metrics().Height.Ceil())

	available := e.width - 2*e.margin - 2*e.stroke - 2*groupPadding
	if available <= 0 || text == "" {
		return lineHeight
	}
	measured := float64(font.MeasureString(e.face, text).Ceil()) * scale
	lines := math.Max(1, math.Ceil(measured/available))
	return lines * lineHeight
}
