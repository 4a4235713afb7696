package similarity

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func uniformGray(w, h int, y uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = y
	}
	return img
}

func gradientRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func checkerboard(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 1 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestScoreIdentical(t *testing.T) {
	imgs := []image.Image{
		uniformGray(2, 2, 200),
		gradientRGBA(37, 19),
		checkerboard(8, 8),
	}
	for _, img := range imgs {
		if got := Score(img, img); got != 1.0 {
			t.Errorf("Score(A, A) = %v, want 1.0 for %T %v", got, img, img.Bounds())
		}
	}
}

func TestScoreNil(t *testing.T) {
	a := uniformGray(2, 2, 200)

	if got := Score(a, nil); got != 0 {
		t.Errorf("Score(A, nil) = %v, want 0", got)
	}
	if got := Score(nil, a); got != 0 {
		t.Errorf("Score(nil, A) = %v, want 0", got)
	}
	if got := Score(nil, nil); got != 0 {
		t.Errorf("Score(nil, nil) = %v, want 0", got)
	}
}

func TestScoreEmpty(t *testing.T) {
	a := uniformGray(2, 2, 200)
	empty := image.NewGray(image.Rectangle{})

	if got := Score(a, empty); got != 0 {
		t.Errorf("Score(A, empty) = %v, want 0", got)
	}
	if got := Score(empty, a); got != 0 {
		t.Errorf("Score(empty, A) = %v, want 0", got)
	}
}

func TestScoreUniformLuminance(t *testing.T) {
	ref := uniformGray(2, 2, 200)

	tests := []struct {
		snap uint8
		want float64
	}{
		{200, 1.0},
		{180, 1 - 20.0/255},
		{150, 1 - 50.0/255},
		{0, 1 - 200.0/255},
	}

	for _, tt := range tests {
		got := Score(ref, uniformGray(2, 2, tt.snap))
		if !approx(got, tt.want, 1e-9) {
			t.Errorf("Score(200, %d) = %v, want %v", tt.snap, got, tt.want)
		}
	}
}

func TestScoreExtremes(t *testing.T) {
	black := uniformGray(4, 4, 0)
	white := uniformGray(4, 4, 255)

	if got := Score(black, white); got != 0 {
		t.Errorf("Score(black, white) = %v, want 0", got)
	}
}

func TestScoreMonotonic(t *testing.T) {
	ref := uniformGray(3, 3, 128)
	prev := 2.0
	for d := 0; d <= 120; d += 10 {
		got := Score(ref, uniformGray(3, 3, uint8(128+d)))
		if got > prev {
			t.Fatalf("score rose from %v to %v at difference %d", prev, got, d)
		}
		prev = got
	}
}

func TestScoreDirectional(t *testing.T) {
	small := uniformGray(2, 2, 200)
	large := checkerboard(4, 4)

	forward := Score(small, large)
	backward := Score(large, small)

	// small resampled to 4x4 stays uniform 200 against a 0/255 checkerboard.
	if !approx(backward, 0.5, 0.01) {
		t.Errorf("Score(large, small) = %v, want ~0.5", backward)
	}
	// the checkerboard averages out to mid-gray when shrunk to 2x2.
	if math.Abs(forward-backward) < 0.1 {
		t.Errorf("Score(small, large) = %v, Score(large, small) = %v; expected resampling direction to matter", forward, backward)
	}
}

func TestScoreSameSizeSymmetric(t *testing.T) {
	a := gradientRGBA(16, 16)
	b := checkerboard(16, 16)

	if Score(a, b) != Score(b, a) {
		t.Errorf("same-size scores differ: %v vs %v", Score(a, b), Score(b, a))
	}
}

func TestScoreSubImageBounds(t *testing.T) {
	base := gradientRGBA(20, 20)
	sub := base.SubImage(image.Rect(5, 5, 15, 15))

	fresh := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			fresh.Set(x, y, base.At(x+5, y+5))
		}
	}

	if got := Score(fresh, sub); got != 1.0 {
		t.Errorf("Score(fresh, sub) = %v, want 1.0", got)
	}

	graySub := checkerboard(12, 12).SubImage(image.Rect(2, 2, 10, 10))
	if got := Score(checkerboard(8, 8), graySub); got != 1.0 {
		t.Errorf("Score(checkerboard, gray sub-image) = %v, want 1.0", got)
	}
}

func TestLuminance(t *testing.T) {
	img := image.NewRGBA(image.Rect(3, 3, 5, 4))
	img.Set(3, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(4, 3, color.RGBA{A: 255})

	gray := Luminance(img)
	if gray.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v, want origin-rooted 2x1", gray.Bounds())
	}
	if gray.GrayAt(0, 0).Y != 255 || gray.GrayAt(1, 0).Y != 0 {
		t.Errorf("luminance = %v, want [255 0]", gray.Pix)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1, 100},
		{0.92156862, 92.16},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
