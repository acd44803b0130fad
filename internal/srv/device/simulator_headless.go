//go:build !gui

package device

import "image"

// simulator keeps the last frame in memory. Build with -tags gui to get a
// desktop window instead.
type simulator struct {
	simulatorFrame
}

func newSimulator(width, height int) *simulator {
	return &simulator{simulatorFrame: simulatorFrame{brightness: 100}}
}

func (s *simulator) start() {}

func (s *simulator) show(img *image.RGBA) {
	s.update(img, -1)
}

func (s *simulator) setBrightness(percent int) {
	s.update(nil, percent)
}

func (s *simulator) close() {}
