// Package similarity scores how close two raster images are.
//
// The score is an inverse mean absolute luminance difference:
//
//	score = 1 - mean(|La - Lb|) / 255
//
// It is cheap and deterministic but ignores spatial structure: two images
// with the same total brightness difference spread differently score the same.
package similarity

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Score returns the similarity of b to a in [0,1].
//
// A nil or empty image on either side scores 0. When sizes differ, b is
// resampled to a's size, so Score(a, b) and Score(b, a) can disagree.
func Score(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Empty() || bb.Empty() {
		return 0
	}
	if ab.Size() != bb.Size() {
		b = resample(b, ab.Size())
	}

	la, lb := Luminance(a), Luminance(b)
	var sum uint64
	for i := range la.Pix {
		d := int(la.Pix[i]) - int(lb.Pix[i])
		if d < 0 {
			d = -d
		}
		sum += uint64(d)
	}

	mean := float64(sum) / float64(len(la.Pix))
	return clamp(1 - mean/255)
}

// Luminance converts img to an 8-bit grayscale image rooted at (0,0).
func Luminance(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < bounds.Dy(); y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+bounds.Dx()], src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):])
		}
		return gray
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			gray.Pix[(y-bounds.Min.Y)*gray.Stride+(x-bounds.Min.X)] = c.Y
		}
	}
	return gray
}

// Percent renders a score as a percentage rounded to two decimals.
func Percent(score float64) float64 {
	return math.Round(score*10000) / 100
}

// resample scales src to size with Catmull-Rom interpolation.
func resample(src image.Image, size image.Point) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
