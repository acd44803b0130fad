package device

import (
	"image"
	"sync"
)

type simulatorFrame struct {
	lock       sync.RWMutex
	frame      *image.RGBA
	brightness int
}

func (f *simulatorFrame) update(img *image.RGBA, brightness int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if img != nil {
		if f.frame == nil || f.frame.Bounds() != img.Bounds() {
			f.frame = image.NewRGBA(img.Bounds())
		}
		copy(f.frame.Pix, img.Pix)
	}
	if brightness >= 0 {
		f.brightness = brightness
	}
}

// current returns a copy of the last frame dimmed to the backlight level.
func (f *simulatorFrame) current() *image.RGBA {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.frame == nil {
		return nil
	}
	dimmed := image.NewRGBA(f.frame.Bounds())
	for i, v := range f.frame.Pix {
		if i%4 == 3 {
			dimmed.Pix[i] = v
			continue
		}
		dimmed.Pix[i] = uint8(int(v) * f.brightness / 100)
	}
	return dimmed
}
