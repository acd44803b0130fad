package srv

import (
	"fmt"
	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/jypelle/nashat/internal/srv/metric"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
	"math"
)

var (
	accentColor = color.RGBA{0x47, 0xba, 0xf7, 0xff}
	valueColor  = color.RGBA{0x00, 0xb4, 0xf1, 0xff}
	labelColor  = color.RGBA{0xbe, 0xc0, 0xc1, 0xff}
	whiteColor  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	blackColor  = color.RGBA{0x00, 0x00, 0x00, 0xff}
	cpuColor    = color.RGBA{0x4c, 0xad, 0x60, 0xff}
	diskColor   = color.RGBA{0xe9, 0x35, 0x7f, 0xff}
	memoryColor = color.RGBA{0x00, 0xb4, 0xf1, 0xff}
	tempColor   = color.RGBA{0xff, 0x88, 0x00, 0xff}
	idleColor   = color.RGBA{0x00, 0xff, 0x00, 0xff}
	kiloColor   = color.RGBA{0xff, 0xff, 0x00, 0xff}
	megaColor   = color.RGBA{0xff, 0x8f, 0x00, 0xff}
	errorColor  = color.RGBA{0xff, 0x30, 0x30, 0xff}
	turboColor  = color.RGBA{0xff, 0x60, 0x00, 0xff}
)

var labelAscent = bitmapfont.Face.Metrics().Ascent.Ceil()

const (
	gigabyte    = float64(1 << 30)
	megabyte    = float64(1 << 20)
	kilobyte    = float64(1 << 10)
	fullCircle  = 2 * math.Pi
	quarterTurn = math.Pi / 2
)

// AddLabel draws label with its top left corner at (x, y).
func AddLabel(img draw.Image, x, y int, label string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: bitmapfont.Face,
		Dot:  fixed.P(x, y+labelAscent),
	}
	d.DrawString(label)
}

// AddCenteredLabel draws label horizontally centered on x.
func AddCenteredLabel(img draw.Image, x, y int, label string, c color.Color) {
	AddLabel(img, x-LabelWidth(label)/2, y, label, c)
}

func LabelWidth(label string) int {
	return font.MeasureString(bitmapfont.Face, label).Ceil()
}

func fillRect(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawBar draws an outlined horizontal bar filled to percent of its inner
// width.
func drawBar(img draw.Image, r image.Rectangle, percent float64, c color.Color) {
	fillRect(img, r, whiteColor)
	inner := r.Inset(1)
	fillRect(img, inner, blackColor)
	filled := int(float64(inner.Dx()) * metric.ClampPercent(percent) / 100)
	if filled > 0 {
		fillRect(img, image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+filled, inner.Max.Y), c)
	}
}

// drawThinBar draws a borderless bar, used where the layout is tight.
func drawThinBar(img draw.Image, r image.Rectangle, percent float64, c color.Color) {
	fillRect(img, r, blackColor)
	filled := int(float64(r.Dx()) * metric.ClampPercent(percent) / 100)
	if filled > 0 {
		fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+filled, r.Max.Y), c)
	}
}

// drawRing draws a ring gauge: a full track, then an arc starting at twelve
// o'clock and running clockwise over percent of the circle.
func drawRing(img draw.Image, center image.Point, radius, width int, percent float64, track, c color.Color) {
	outer := float64(radius)
	inner := float64(radius - width)
	sweep := fullCircle * metric.ClampPercent(percent) / 100
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			distance := math.Hypot(float64(x), float64(y))
			if distance > outer || distance < inner {
				continue
			}
			angle := math.Atan2(float64(y), float64(x)) + quarterTurn
			if angle < 0 {
				angle += fullCircle
			}
			pixel := track
			if angle <= sweep && sweep > 0 {
				pixel = c
			}
			if pixel != nil {
				img.Set(center.X+x, center.Y+y, pixel)
			}
		}
	}
}

// formatRate renders a transfer rate the way the front panel shows it, with
// the color matching its magnitude.
func formatRate(bytesPerSecond float64) (string, color.RGBA) {
	switch {
	case bytesPerSecond < kilobyte:
		return fmt.Sprintf("%dB/s", int64(math.Max(0, bytesPerSecond))), idleColor
	case bytesPerSecond < megabyte:
		return fmt.Sprintf("%dKB/s", int64(bytesPerSecond/kilobyte)), kiloColor
	default:
		return fmt.Sprintf("%dMB/s", int64(bytesPerSecond/megabyte)), megaColor
	}
}

// formatSize renders a byte count in gigabytes, or megabytes below one
// gigabyte.
func formatSize(bytes uint64) string {
	if float64(bytes) >= gigabyte {
		return fmt.Sprintf("%.2fG", float64(bytes)/gigabyte)
	}
	return fmt.Sprintf("%.2fM", float64(bytes)/megabyte)
}

func formatPercent(percent float64) string {
	return fmt.Sprintf("%d%%", int(math.Floor(metric.ClampPercent(percent))))
}
