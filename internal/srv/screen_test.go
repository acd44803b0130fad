package srv

import (
	"github.com/jypelle/nashat/internal/images"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/stretchr/testify/assert"
	"image"
	"image/color"
	"testing"
)

func regionHasColor(img *image.RGBA, r image.Rectangle, c color.RGBA) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}

func TestComposeFrameSize(t *testing.T) {
	for _, mode := range []config.DisplayMode{config.DeviceStatusMode, config.StorageFocusMode} {
		img := composeFrame(sampleSnapshot(baseTime), renderView{DisplayMode: mode, Now: baseTime}, nil)
		assert.Equal(t, image.Rect(0, 0, frameWidth, frameHeight), img.Bounds(), mode.String())
		assert.Equal(t, blackColor, img.RGBAAt(frameWidth-1, frameHeight-1))
	}
}

func TestComposeFrameScreensDiffer(t *testing.T) {
	snapshot := sampleSnapshot(baseTime)
	status := composeFrame(snapshot, renderView{DisplayMode: config.DeviceStatusMode, Now: baseTime}, nil)
	storage := composeFrame(snapshot, renderView{DisplayMode: config.StorageFocusMode, Now: baseTime}, nil)
	assert.NotEqual(t, status.Pix, storage.Pix)
}

func TestComposeFrameBackground(t *testing.T) {
	red := color.RGBA{0xff, 0, 0, 0xff}
	background := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	fillRect(background, background.Bounds(), red)
	layouts := &images.Layouts{DeviceStatus: background}

	img := composeFrame(sampleSnapshot(baseTime), renderView{DisplayMode: config.DeviceStatusMode, Now: baseTime}, layouts)
	assert.Equal(t, red, img.RGBAAt(frameWidth-1, frameHeight-1))

	img = composeFrame(sampleSnapshot(baseTime), renderView{DisplayMode: config.StorageFocusMode, Now: baseTime}, layouts)
	assert.Equal(t, blackColor, img.RGBAAt(frameWidth-1, frameHeight-1))
}

func TestComposeFrameIndicators(t *testing.T) {
	turboArea := image.Rect(frameWidth-LabelWidth("TURBO")-4, 0, frameWidth, 20)
	errorArea := image.Rect(0, 0, 30, 20)

	img := composeFrame(sampleSnapshot(baseTime), renderView{Now: baseTime}, nil)
	assert.False(t, regionHasColor(img, turboArea, turboColor))
	assert.False(t, regionHasColor(img, errorArea, errorColor))

	img = composeFrame(sampleSnapshot(baseTime), renderView{FanMode: config.TurboFanMode, Error: true, Now: baseTime}, nil)
	assert.True(t, regionHasColor(img, turboArea, turboColor))
	assert.True(t, regionHasColor(img, errorArea, errorColor))
}

func TestComposeFrameDiskMessage(t *testing.T) {
	messageArea := image.Rect(0, 218, 190, 240)
	snapshot := sampleSnapshot(baseTime)

	img := composeFrame(snapshot, renderView{Now: baseTime}, nil)
	assert.False(t, regionHasColor(img, messageArea, accentColor))

	snapshot.DiskState = metric.DiskStateUnpartitioned
	img = composeFrame(snapshot, renderView{Now: baseTime}, nil)
	assert.True(t, regionHasColor(img, messageArea, accentColor))
}

func TestDrawBarScalesToWidth(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 110, 12))
	drawBar(img, image.Rect(0, 0, 102, 10), 25, diskColor)

	assert.Equal(t, whiteColor, img.RGBAAt(0, 5))
	assert.Equal(t, diskColor, img.RGBAAt(1, 5))
	assert.Equal(t, diskColor, img.RGBAAt(25, 5))
	assert.Equal(t, blackColor, img.RGBAAt(26, 5))
	assert.Equal(t, whiteColor, img.RGBAAt(101, 5))

	drawBar(img, image.Rect(0, 0, 102, 10), 150, diskColor)
	assert.Equal(t, diskColor, img.RGBAAt(100, 5))

	img = image.NewRGBA(image.Rect(0, 0, 110, 12))
	drawBar(img, image.Rect(0, 0, 102, 10), -20, diskColor)
	assert.False(t, regionHasColor(img, img.Bounds(), diskColor))
}

func TestFormatPercentClamps(t *testing.T) {
	assert.Equal(t, "0%", formatPercent(-3))
	assert.Equal(t, "42%", formatPercent(42.9))
	assert.Equal(t, "100%", formatPercent(140))
}

func TestDrawRing(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	drawRing(img, image.Pt(50, 50), 20, 4, 25, whiteColor, cpuColor)

	assert.Equal(t, cpuColor, img.RGBAAt(50, 32), "twelve o'clock")
	assert.Equal(t, whiteColor, img.RGBAAt(50, 68), "six o'clock")
	assert.Equal(t, whiteColor, img.RGBAAt(32, 50), "nine o'clock")
	assert.Equal(t, color.RGBA{}, img.RGBAAt(50, 50), "center")
}

func TestFormatRate(t *testing.T) {
	cases := []struct {
		rate     float64
		expected string
		color    color.RGBA
	}{
		{0, "0B/s", idleColor},
		{512.7, "512B/s", idleColor},
		{2048, "2KB/s", kiloColor},
		{3.5 * 1024 * 1024, "3MB/s", megaColor},
	}
	for _, c := range cases {
		label, labelColor := formatRate(c.rate)
		assert.Equal(t, c.expected, label)
		assert.Equal(t, c.color, labelColor)
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "1.50G", formatSize(3<<29))
	assert.Equal(t, "512.00M", formatSize(512<<20))
}

func TestDiskStateMessage(t *testing.T) {
	assert.Equal(t, "", diskStateMessage(metric.DiskStateOK))
	assert.Equal(t, "Detected but not installed", diskStateMessage(metric.DiskStateNotMounted))
	assert.Equal(t, "Unpartitioned/NC", diskStateMessage(metric.DiskStateUnpartitioned))
}
