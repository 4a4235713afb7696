//go:build linux

package screen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
)

type linuxBackend struct{ tempDir string }

func (l *linuxBackend) name() string { return "scrot/import" }

func (l *linuxBackend) captureRaw(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	tmpFile := filepath.Join(l.tempDir, "region.png")
	// Try scrot first, fall back to ImageMagick import
	var cmd *exec.Cmd
	if _, err := exec.LookPath("scrot"); err == nil {
		region := fmt.Sprintf("%d,%d,%d,%d", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		cmd = exec.CommandContext(ctx, "scrot", "-o", "-a", region, tmpFile)
	} else if _, err := exec.LookPath("import"); err == nil {
		crop := fmt.Sprintf("%dx%d+%d+%d", rect.Dx(), rect.Dy(), rect.Min.X, rect.Min.Y)
		cmd = exec.CommandContext(ctx, "import", "-silent", "-window", "root", "-crop", crop, tmpFile)
	} else {
		return nil, errors.New("no screenshot tool found (install scrot or imagemagick)")
	}
	return runCapture(cmd, tmpFile)
}

func (l *linuxBackend) cleanup() {}

func platformBackend(tempDir string) backend {
	return &linuxBackend{tempDir: tempDir}
}
