//go:build gui

package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
	"image"
)

// simulator shows the panel content in a desktop window.
type simulator struct {
	simulatorFrame
	width, height int
	window        *app.Window
}

func newSimulator(width, height int) *simulator {
	return &simulator{width: width, height: height, simulatorFrame: simulatorFrame{brightness: 100}}
}

func (s *simulator) start() {
	s.window = app.NewWindow(
		app.Title("nashat"),
		app.Size(unit.Px(float32(2*s.width)), unit.Px(float32(2*s.height))),
		app.MinSize(unit.Px(float32(s.width)), unit.Px(float32(s.height))),
	)
	go func() {
		if err := s.gioloop(); err != nil {
			logrus.WithError(err).Warn("Simulation window closed")
		}
	}()
	go app.Main()
}

func (s *simulator) show(img *image.RGBA) {
	s.update(img, -1)
	s.invalidate()
}

func (s *simulator) setBrightness(percent int) {
	s.update(nil, percent)
	s.invalidate()
}

func (s *simulator) invalidate() {
	if s.window != nil {
		s.window.Invalidate()
	}
}

func (s *simulator) close() {
	if s.window != nil {
		s.window.Close()
	}
}

func (s *simulator) gioloop() error {
	var ops op.Ops
	for {
		e := <-s.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)
			if frame := s.current(); frame != nil {
				img := widget.Image{Src: paint.NewImageOp(frame), Fit: widget.Contain}
				img.Layout(gtx)
			}
			e.Frame(gtx.Ops)
		}
	}
}
