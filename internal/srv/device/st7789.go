package device

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"time"
)

// ST7789 commands
const (
	cmdSLPOUT    = 0x11
	cmdINVON     = 0x21
	cmdDISPON    = 0x29
	cmdCASET     = 0x2A
	cmdRASET     = 0x2B
	cmdRAMWR     = 0x2C
	cmdMADCTL    = 0x36
	cmdCOLMOD    = 0x3A
	cmdPORCTRL   = 0xB2
	cmdGCTRL     = 0xB7
	cmdVCOMS     = 0xBB
	cmdLCMCTRL   = 0xC0
	cmdVDVVRHEN  = 0xC2
	cmdVRHS      = 0xC3
	cmdVDVS      = 0xC4
	cmdFRCTRL2   = 0xC6
	cmdPWCTRL1   = 0xD0
	cmdPVGAMCTRL = 0xE0
	cmdNVGAMCTRL = 0xE1
)

const (
	madctlLandscape = 0x70
	madctlPortrait  = 0x00
	colmodRGB565    = 0x05
)

const (
	// Native panel resolution, portrait.
	PanelWidth  = 240
	PanelHeight = 320

	// MaxChunk is the largest transfer the SPI driver accepts in one write.
	MaxChunk = 4096
)

var (
	ErrAlreadyInitialized = errors.New("st7789: already initialized")
	ErrInvalidWindow      = errors.New("st7789: invalid window")
	ErrInvalidImage       = errors.New("st7789: image does not fit the panel")
)

// spiBus is the part of spi.Conn used by the driver.
type spiBus interface {
	Tx(w, r []byte) error
}

type outputPin interface {
	Out(l gpio.Level) error
}

// ST7789 speaks the command protocol of the panel controller over SPI. It owns
// the bus and the data/command and reset pins, and is not safe for concurrent
// use.
type ST7789 struct {
	bus   spiBus
	dc    outputPin
	rst   outputPin
	sleep func(time.Duration)

	chunk       int
	initialized bool
	halted      bool

	landscapeBuffer []byte
	portraitBuffer  []byte
	portraitSize    image.Point

	clearBuffer []byte
	clearColor  color.RGBA
}

func NewST7789(bus spiBus, dc, rst outputPin) *ST7789 {
	chunk := MaxChunk
	if limits, ok := bus.(conn.Limits); ok {
		if limit := limits.MaxTxSize(); limit > 0 && limit < chunk {
			chunk = limit
		}
	}
	return &ST7789{
		bus:             bus,
		dc:              dc,
		rst:             rst,
		sleep:           time.Sleep,
		chunk:           chunk,
		landscapeBuffer: make([]byte, PanelWidth*PanelHeight*2),
	}
}

// Initialize resets the controller and sends its power-up sequence. It can only
// be called once.
func (d *ST7789) Initialize() error {
	if d.initialized {
		return ErrAlreadyInitialized
	}
	if err := d.reset(); err != nil {
		return err
	}

	if err := d.command(cmdSLPOUT); err != nil {
		return err
	}
	d.sleep(120 * time.Millisecond)

	sequence := []struct {
		cmd  byte
		data []byte
	}{
		{cmdMADCTL, []byte{madctlPortrait}},
		{cmdCOLMOD, []byte{colmodRGB565}},
		{cmdINVON, nil},
		{cmdCASET, []byte{0x00, 0x00, 0x01, 0x3F}},
		{cmdRASET, []byte{0x00, 0x00, 0x00, 0xEF}},
		{cmdPORCTRL, []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
		{cmdGCTRL, []byte{0x35}},
		{cmdVCOMS, []byte{0x1F}},
		{cmdLCMCTRL, []byte{0x2C}},
		{cmdVDVVRHEN, []byte{0x01}},
		{cmdVRHS, []byte{0x12}},
		{cmdVDVS, []byte{0x20}},
		{cmdFRCTRL2, []byte{0x0F}},
		{cmdPWCTRL1, []byte{0xA4, 0xA1}},
		{cmdPVGAMCTRL, []byte{0xD0, 0x08, 0x11, 0x08, 0x0C, 0x15, 0x39, 0x33, 0x50, 0x36, 0x13, 0x14, 0x29, 0x2D}},
		{cmdNVGAMCTRL, []byte{0xD0, 0x08, 0x10, 0x08, 0x06, 0x06, 0x39, 0x44, 0x51, 0x0B, 0x16, 0x14, 0x2F, 0x31}},
		{cmdDISPON, nil},
	}
	for _, step := range sequence {
		if err := d.command(step.cmd, step.data...); err != nil {
			return err
		}
	}

	d.initialized = true
	return nil
}

func (d *ST7789) reset() error {
	for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := d.rst.Out(level); err != nil {
			return hardwareError("reset", err)
		}
		d.sleep(10 * time.Millisecond)
	}
	return nil
}

// command sends cmd with DC low, then its parameters with DC high.
func (d *ST7789) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return hardwareError("dc", err)
	}
	if err := d.bus.Tx([]byte{cmd}, nil); err != nil {
		return hardwareError("command", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return hardwareError("dc", err)
	}
	return hardwareError("data", d.bus.Tx(data, nil))
}

// SetWindow selects the region written by the next memory write. x1 and y1 are
// exclusive.
func (d *ST7789) SetWindow(x0, y0, x1, y1 int) error {
	// Either axis spans at most PanelHeight depending on the addressing mode.
	if x0 < 0 || y0 < 0 || x1 <= x0 || y1 <= y0 || x1 > PanelHeight || y1 > PanelHeight {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidWindow, x0, y0, x1, y1)
	}
	if err := d.command(cmdCASET, byte(x0>>8), byte(x0), byte((x1-1)>>8), byte(x1-1)); err != nil {
		return err
	}
	return d.command(cmdRASET, byte(y0>>8), byte(y0), byte((y1-1)>>8), byte(y1-1))
}

// ShowImage sends img to the panel. A 320x240 image is written in landscape
// addressing, any other size up to 240x320 in portrait addressing from the
// top-left corner.
func (d *ST7789) ShowImage(img *image.RGBA) error {
	if img == nil {
		return ErrInvalidImage
	}
	size := img.Bounds().Size()
	landscape := size.X == PanelHeight && size.Y == PanelWidth
	if size.X <= 0 || size.Y <= 0 || (!landscape && (size.X > PanelWidth || size.Y > PanelHeight)) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidImage, size.X, size.Y)
	}

	var buffer []byte
	var madctl byte
	if landscape {
		buffer = d.landscapeBuffer
		madctl = madctlLandscape
	} else {
		if d.portraitBuffer == nil || d.portraitSize != size {
			d.portraitBuffer = make([]byte, size.X*size.Y*2)
			d.portraitSize = size
		}
		buffer = d.portraitBuffer
		madctl = madctlPortrait
	}
	encodeRGB565(buffer, img)

	if err := d.command(cmdMADCTL, madctl); err != nil {
		return err
	}
	if err := d.SetWindow(0, 0, size.X, size.Y); err != nil {
		return err
	}
	return d.writePixels(buffer)
}

// Clear fills the panel with c.
func (d *ST7789) Clear(c color.RGBA) error {
	if d.clearBuffer == nil || d.clearColor != c {
		if d.clearBuffer == nil {
			d.clearBuffer = make([]byte, PanelWidth*PanelHeight*2)
		}
		hi, lo := rgb565(c.R, c.G, c.B)
		for i := 0; i < len(d.clearBuffer); i += 2 {
			d.clearBuffer[i] = hi
			d.clearBuffer[i+1] = lo
		}
		d.clearColor = c
	}

	if err := d.command(cmdMADCTL, madctlPortrait); err != nil {
		return err
	}
	if err := d.SetWindow(0, 0, PanelWidth, PanelHeight); err != nil {
		return err
	}
	return d.writePixels(d.clearBuffer)
}

func (d *ST7789) writePixels(buffer []byte) error {
	if err := d.command(cmdRAMWR); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return hardwareError("dc", err)
	}
	for start := 0; start < len(buffer); start += d.chunk {
		end := min(start+d.chunk, len(buffer))
		if err := d.bus.Tx(buffer[start:end], nil); err != nil {
			return hardwareError("pixels", err)
		}
	}
	return nil
}

// Halt leaves the control pins in their idle level: reset released, DC low.
func (d *ST7789) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	if err := d.rst.Out(gpio.High); err != nil {
		return hardwareError("reset", err)
	}
	return hardwareError("dc", d.dc.Out(gpio.Low))
}

func rgb565(r, g, b uint8) (hi, lo byte) {
	return (r & 0xF8) | (g >> 5), ((g << 3) & 0xE0) | (b >> 3)
}

func encodeRGB565(buffer []byte, img *image.RGBA) {
	bounds := img.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):]
		for x := 0; x < bounds.Dx(); x++ {
			buffer[i], buffer[i+1] = rgb565(row[4*x], row[4*x+1], row[4*x+2])
			i += 2
		}
	}
}
