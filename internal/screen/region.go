package screen

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/regionwatch/internal/errors"
)

// MinRegionSize is the side length a user selection must exceed.
const MinRegionSize = 10

// Region is an axis-aligned rectangle on the capturable surface.
type Region struct {
	X, Y, Width, Height int
}

// ParseRegion parses the "x,y,w,h" form used by flags and env vars.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, apperrors.Newf(apperrors.InvalidArgument, "region %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, apperrors.Wrapf(err, apperrors.InvalidArgument, "region %q: bad integer %q", s, p)
		}
		v[i] = n
	}
	return Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// String formats the region as x,y,w,h.
func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Validate checks the region is non-negative with positive size.
func (r Region) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return apperrors.Newf(apperrors.InvalidRegion, "region %s has a negative origin", r)
	}
	if r.Empty() {
		return apperrors.Newf(apperrors.InvalidRegion, "region %s has no area", r)
	}
	return nil
}

// Within checks the region lies entirely inside bounds.
func (r Region) Within(bounds image.Rectangle) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if !r.Rect().In(bounds) {
		return apperrors.Newf(apperrors.InvalidRegion, "region %s outside screen %v", r, bounds).
			WithMetadata("screen", bounds.String())
	}
	return nil
}

// ValidateSelection applies the rules for a user-chosen region: strictly
// larger than MinRegionSize on both sides and inside the screen.
func (r Region) ValidateSelection(bounds image.Rectangle) error {
	if r.Width <= MinRegionSize || r.Height <= MinRegionSize {
		return apperrors.Newf(apperrors.InvalidRegion, "region %s smaller than %dx%d", r, MinRegionSize+1, MinRegionSize+1)
	}
	return r.Within(bounds)
}
