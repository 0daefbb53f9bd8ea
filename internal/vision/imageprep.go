package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	// Decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"interiordesigner/internal/apperr"
)

// MaxImageDimension bounds the longest side of images sent to editors.
const MaxImageDimension = 1024

// PrepareImage reads the photo at path, scales it so neither side exceeds
// maxSize and re-encodes it as JPEG.
func PrepareImage(path string, maxSize int) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.IO("imageprep", "read "+path, err)
	}
	return PrepareImageBytes(raw, maxSize)
}

// PrepareImageBytes is PrepareImage for an in-memory payload.
func PrepareImageBytes(raw []byte, maxSize int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.IO("imageprep", "decode image", err)
	}
	if maxSize <= 0 {
		maxSize = MaxImageDimension
	}

	bounds := src.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)

	// JPEG has no alpha, so flatten onto white first.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, apperr.IO("imageprep", "encode jpeg", err)
	}
	return out.Bytes(), nil
}

func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

// BlankCanvas returns a white JPEG of the given size. Editors only accept a
// base image, so prompt-only generation draws onto this.
func BlankCanvas(width, height int) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: 85}); err != nil {
		return nil, apperr.IO("imageprep", "encode canvas", err)
	}
	return out.Bytes(), nil
}
