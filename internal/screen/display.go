package screen

import (
	"context"
	"image"

	"github.com/kbinani/screenshot"
)

// displayBackend captures through the native display API.
type displayBackend struct{}

func (displayBackend) name() string { return "display" }

func (displayBackend) captureRaw(_ context.Context, rect image.Rectangle) (image.Image, error) {
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (displayBackend) cleanup() {}

// displayBounds returns the union of all active displays.
func displayBounds() image.Rectangle {
	var bounds image.Rectangle
	for i := 0; i < screenshot.NumActiveDisplays(); i++ {
		bounds = bounds.Union(screenshot.GetDisplayBounds(i))
	}
	return bounds
}
