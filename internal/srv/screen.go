package srv

import (
	"fmt"
	"github.com/jypelle/nashat/internal/images"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/jypelle/nashat/internal/version"
	"golang.org/x/image/draw"
	"image"
	"image/color"
	"math"
	"time"
)

const (
	frameWidth  = 320
	frameHeight = 240

	clockLayout = "2006-01-02 15:04"
)

// composeFrame draws the screen selected by view.DisplayMode.
func composeFrame(snapshot *metric.Snapshot, view renderView, layouts *images.Layouts) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	if background := backgroundFor(layouts, view.DisplayMode); background != nil {
		draw.Draw(img, img.Bounds(), background, background.Bounds().Min, draw.Src)
	} else {
		fillRect(img, img.Bounds(), blackColor)
	}

	switch view.DisplayMode {
	case config.StorageFocusMode:
		drawStorageFocus(img, snapshot, view.Now)
	default:
		drawDeviceStatus(img, snapshot, view.Now)
	}
	drawIndicators(img, view)
	return img
}

// composeSplash is shown once while the first metrics are collected.
func composeSplash() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	fillRect(img, img.Bounds(), blackColor)
	AddCenteredLabel(img, frameWidth/2, 100, version.AppName, accentColor)
	AddCenteredLabel(img, frameWidth/2, 120, version.AppVersion.String(), labelColor)
	return img
}

func backgroundFor(layouts *images.Layouts, mode config.DisplayMode) *image.RGBA {
	if layouts == nil {
		return nil
	}
	if mode == config.StorageFocusMode {
		return layouts.StorageFocus
	}
	return layouts.DeviceStatus
}

func drawIndicators(img *image.RGBA, view renderView) {
	if view.FanMode == config.TurboFanMode {
		AddLabel(img, frameWidth-LabelWidth("TURBO")-4, 2, "TURBO", turboColor)
	}
	if view.Error {
		AddLabel(img, 4, 2, "ERR", errorColor)
	}
}

func drawDeviceStatus(img *image.RGBA, snapshot *metric.Snapshot, now time.Time) {
	AddCenteredLabel(img, frameWidth/2, 2, "Device Status", accentColor)
	AddLabel(img, 5, 46, now.Format(clockLayout), accentColor)
	AddLabel(img, 170, 46, "IP : "+snapshot.IP, accentColor)

	gauges := []struct {
		label   string
		x       int
		percent float64
		value   string
		fill    color.RGBA
	}{
		{"CPU", 40, snapshot.CPUPercent, formatPercent(snapshot.CPUPercent), cpuColor},
		{"Disk", 120, snapshot.RootDisk.Percent, formatPercent(snapshot.RootDisk.Percent), diskColor},
		{"RAM", 203, snapshot.MemoryPercent, formatPercent(snapshot.MemoryPercent), memoryColor},
		{"TEMP", 283, snapshot.CPUTemperature, formatTemperature(snapshot.CPUTemperature), tempColor},
	}
	for _, gauge := range gauges {
		drawRing(img, image.Pt(gauge.x, 111), 30, 8, gauge.percent, whiteColor, gauge.fill)
		AddCenteredLabel(img, gauge.x, 104, gauge.value, valueColor)
		AddCenteredLabel(img, gauge.x, 145, gauge.label, accentColor)
	}

	AddCenteredLabel(img, 215, 170, "RX", whiteColor)
	AddCenteredLabel(img, 282, 170, "TX", whiteColor)
	rx, rxColor := formatRate(snapshot.RxRate)
	AddCenteredLabel(img, 215, 190, rx, rxColor)
	tx, txColor := formatRate(snapshot.TxRate)
	AddCenteredLabel(img, 282, 190, tx, txColor)

	if snapshot.Raid {
		AddLabel(img, 40, 160, "RAID", accentColor)
	}
	for i, bay := range snapshot.Bays {
		top := 177 + 20*i
		AddLabel(img, 14, top, fmt.Sprintf("D%d", i), accentColor)
		drawBar(img, image.Rect(40, top, 143, top+14), bay.UsedPercent, diskColor)
		if bay.Present && bay.Capacity > 0 {
			AddCenteredLabel(img, 91, top, formatPercent(bay.UsedPercent), valueColor)
		}
	}
	if message := diskStateMessage(snapshot.DiskState); message != "" {
		AddCenteredLabel(img, 91, 218, message, accentColor)
	}
}

func drawStorageFocus(img *image.RGBA, snapshot *metric.Snapshot, now time.Time) {
	AddLabel(img, 40, 10, now.Format(clockLayout), whiteColor)
	AddLabel(img, 155, 58, "IP : "+snapshot.IP, labelColor)

	AddLabel(img, 60, 55, "CPU Used", labelColor)
	drawRing(img, image.Pt(88, 112), 22, 3, snapshot.CPUPercent, nil, diskColor)
	AddCenteredLabel(img, 88, 106, formatPercent(snapshot.CPUPercent), valueColor)

	root := snapshot.RootDisk
	AddLabel(img, 45, 138, "Used", labelColor)
	AddLabel(img, 85, 138, formatSize(root.Used), labelColor)
	drawThinBar(img, image.Rect(45, 155, 132, 159), sharePercent(root.Used, root.Total), diskColor)
	AddLabel(img, 45, 161, "Free", labelColor)
	AddLabel(img, 85, 161, formatSize(root.Free), labelColor)
	drawThinBar(img, image.Rect(45, 178, 132, 182), sharePercent(root.Free, root.Total), diskColor)

	if snapshot.Raid {
		AddLabel(img, 160, 76, "RAID", labelColor)
	}
	for i, bay := range snapshot.Bays {
		top := 91 + 21*i
		AddLabel(img, 185, top, fmt.Sprintf("Disk%d:", i), labelColor)
		if bay.Present && bay.Capacity > 0 {
			AddLabel(img, 230, top, formatSize(bay.Available), labelColor)
		}
		drawThinBar(img, image.Rect(186, top+17, 273, top+20), bay.UsedPercent, diskColor)
	}
	if message := diskStateMessage(snapshot.DiskState); message != "" {
		AddLabel(img, 155, 135, message, labelColor)
	}

	AddLabel(img, 188, 155, "TX:", labelColor)
	tx, txColor := formatRate(snapshot.TxRate)
	AddLabel(img, 210, 155, tx, txColor)
	AddLabel(img, 188, 175, "RX:", labelColor)
	rx, rxColor := formatRate(snapshot.RxRate)
	AddLabel(img, 210, 175, rx, rxColor)

	AddLabel(img, 133, 205, "TEMP:", tempColor)
	AddLabel(img, 170, 205, formatTemperature(snapshot.CPUTemperature), tempColor)
}

func diskStateMessage(state metric.DiskState) string {
	switch state {
	case metric.DiskStateNotMounted:
		return "Detected but not installed"
	case metric.DiskStateUnpartitioned:
		return "Unpartitioned/NC"
	default:
		return ""
	}
}

func formatTemperature(celsius float64) string {
	return fmt.Sprintf("%d°C", int(math.Floor(celsius)))
}

func sharePercent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
