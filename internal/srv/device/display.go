package device

import (
	"fmt"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/sirupsen/logrus"
	"image"
	"image/color"
	"image/draw"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"sync"
)

type Display struct {
	lock sync.Mutex

	param          config.DisplayParam
	simulationMode bool

	port      spi.PortCloser
	driver    *ST7789
	backlight gpio.PinIO

	rotated *image.RGBA
	frame   *image.RGBA

	simulator *simulator
	stopped   bool
}

// NewDisplay opens the SPI port and the panel pins. Nothing is sent to the
// panel before Start.
func NewDisplay(param config.DisplayParam, simulationMode bool) (*Display, error) {
	d := &Display{
		param:          param,
		simulationMode: simulationMode,
	}

	if simulationMode {
		d.simulator = newSimulator(PanelHeight, PanelWidth)
		return d, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, &config.ConfigurationError{Resource: "periph host", Err: err}
	}

	port, err := spireg.Open(param.SpiPort)
	if err != nil {
		return nil, &config.ConfigurationError{Resource: "spi port " + param.SpiPort, Err: err}
	}
	conn, err := port.Connect(physic.Frequency(param.SpiFrequencyHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, &config.ConfigurationError{Resource: "spi port " + param.SpiPort, Err: err}
	}

	var pins [3]gpio.PinIO
	for i, name := range []string{param.ResetPin, param.DataCommandPin, param.BacklightPin} {
		pins[i] = gpioreg.ByName(name)
		if pins[i] == nil {
			port.Close()
			return nil, &config.ConfigurationError{Resource: "display pin", Err: fmt.Errorf("unknown gpio %q", name)}
		}
	}

	d.port = port
	d.driver = NewST7789(conn, pins[1], pins[0])
	d.backlight = pins[2]
	return d, nil
}

// Start initializes the panel, clears it and lights the backlight.
func (d *Display) Start() error {
	logrus.Infof("Start display device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.simulationMode {
		d.simulator.start()
		return nil
	}

	if err := d.driver.Initialize(); err != nil {
		return err
	}
	if err := d.driver.Clear(color.RGBA{A: 0xFF}); err != nil {
		return err
	}
	return d.setBacklight(config.FullBrightness)
}

// ShowImage sends img to the panel, rotated by 180° when the panel is mounted
// upside down. The simulation window always shows the frame upright.
func (d *Display) ShowImage(img image.Image) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.stopped {
		return nil
	}

	frame := d.toRGBA(img)
	if d.simulationMode {
		d.simulator.show(frame)
		return nil
	}
	if d.param.Rotate180 {
		frame = d.rotate(frame)
	}
	return d.driver.ShowImage(frame)
}

func (d *Display) toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	if d.frame == nil || d.frame.Bounds().Size() != bounds.Size() {
		d.frame = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}
	draw.Draw(d.frame, d.frame.Bounds(), img, bounds.Min, draw.Src)
	return d.frame
}

func (d *Display) rotate(src *image.RGBA) *image.RGBA {
	size := src.Bounds().Size()
	if d.rotated == nil || d.rotated.Bounds().Size() != size {
		d.rotated = image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	}
	rotate180(d.rotated, src)
	return d.rotated
}

// SetBacklight sets the backlight PWM duty cycle, clamped to [0,100].
func (d *Display) SetBacklight(percent int) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.stopped {
		return nil
	}
	return d.setBacklight(percent)
}

func (d *Display) setBacklight(percent int) error {
	logrus.Debugf("Set backlight to %d%%", percent)
	if d.simulationMode {
		d.simulator.setBrightness(percent)
		return nil
	}
	return hardwareError("backlight", setDuty(d.backlight, percent, physic.Frequency(d.param.PwmFrequencyHz)*physic.Hertz))
}

// Stop switches the backlight off, leaves the control pins idle and releases the
// SPI port. Later calls do nothing.
func (d *Display) Stop() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.stopped {
		return nil
	}
	d.stopped = true
	logrus.Infof("Stop display device")

	if d.simulationMode {
		d.simulator.close()
		return nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(hardwareError("backlight", d.backlight.Halt()))
	keep(hardwareError("backlight", d.backlight.Out(gpio.Low)))
	keep(d.driver.Halt())
	keep(d.port.Close())
	return firstErr
}

func rotate180(dst, src *image.RGBA) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	for y := 0; y < height; y++ {
		srcRow := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dstRow := dst.Pix[dst.PixOffset(0, height-1-y):]
		for x := 0; x < width; x++ {
			copy(dstRow[4*(width-1-x):4*(width-x)], srcRow[4*x:4*x+4])
		}
	}
}
