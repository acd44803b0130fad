// Package images loads the optional background layouts drawn under each screen.
package images

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

const (
	DeviceStatusLayout = "device_status"
	StorageFocusLayout = "storage_focus"
)

var layoutExtensions = []string{".png", ".jpg", ".jpeg"}

// Layouts holds one background per screen, already sized to the frame.
type Layouts struct {
	DeviceStatus *image.RGBA
	StorageFocus *image.RGBA
}

// LoadLayouts reads device_status and storage_focus images (png or jpeg) from
// dir and scales them to width x height. An empty dir means plain backgrounds.
func LoadLayouts(dir string, width, height int) (*Layouts, error) {
	if dir == "" {
		return nil, nil
	}

	layouts := &Layouts{}
	var err error
	if layouts.DeviceStatus, err = loadLayout(dir, DeviceStatusLayout, width, height); err != nil {
		return nil, err
	}
	if layouts.StorageFocus, err = loadLayout(dir, StorageFocusLayout, width, height); err != nil {
		return nil, err
	}
	return layouts, nil
}

func loadLayout(dir string, name string, width, height int) (*image.RGBA, error) {
	for _, extension := range layoutExtensions {
		filename := filepath.Join(dir, name+extension)
		file, err := os.Open(filename)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("can't load %s: %w", filename, err)
		}
		logrus.Debugf("Loaded layout %s", filename)
		return fit(img, width, height), nil
	}
	return nil, fmt.Errorf("no %s layout in %s", name, dir)
}

func fit(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return dst
}
