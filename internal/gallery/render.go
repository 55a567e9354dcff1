package gallery

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Render loads path and fits it into a width x height canvas, scaled by
// zoom around the image center. Parts beyond the canvas are cropped and
// the margin is black. The caller closes the returned Mat.
func Render(path string, zoom float64, width, height int) (gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("cannot decode image %s", path)
	}
	defer img.Close()

	return Fit(img, zoom, width, height)
}

// Fit is Render for an image already in memory.
func Fit(img gocv.Mat, zoom float64, width, height int) (gocv.Mat, error) {
	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	if img.Empty() {
		return canvas, nil
	}
	if zoom <= 0 {
		zoom = 1
	}

	iw, ih := img.Cols(), img.Rows()
	scale := math.Min(float64(width)/float64(iw), float64(height)/float64(ih)) * zoom
	sw := int(math.Max(1, math.Round(float64(iw)*scale)))
	sh := int(math.Max(1, math.Round(float64(ih)*scale)))

	scaled := gocv.NewMat()
	defer scaled.Close()
	if err := gocv.Resize(img, &scaled, image.Point{X: sw, Y: sh}, 0, 0, gocv.InterpolationLinear); err != nil {
		canvas.Close()
		return gocv.NewMat(), fmt.Errorf("resize: %w", err)
	}

	cw, ch := min(sw, width), min(sh, height)
	src := scaled.Region(image.Rect((sw-cw)/2, (sh-ch)/2, (sw-cw)/2+cw, (sh-ch)/2+ch))
	defer src.Close()
	dst := canvas.Region(image.Rect((width-cw)/2, (height-ch)/2, (width-cw)/2+cw, (height-ch)/2+ch))
	defer dst.Close()

	if err := src.CopyTo(&dst); err != nil {
		canvas.Close()
		return gocv.NewMat(), fmt.Errorf("copy: %w", err)
	}
	return canvas, nil
}
