//go:build darwin

package screen

import (
	"context"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
)

type darwinBackend struct{ tempDir string }

func (d *darwinBackend) name() string { return "screencapture" }

func (d *darwinBackend) captureRaw(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	tmpFile := filepath.Join(d.tempDir, "region.png")
	// -x: no sound, -R: rectangle, -t png: lossless so scores are not skewed by JPEG artifacts
	region := fmt.Sprintf("%d,%d,%d,%d", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-R", region, "-t", "png", tmpFile)
	return runCapture(cmd, tmpFile)
}

func (d *darwinBackend) cleanup() {}

func platformBackend(tempDir string) backend {
	return &darwinBackend{tempDir: tempDir}
}
