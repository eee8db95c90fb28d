package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const jpegQuality = 85

// ErrInvalidImage is returned for input that cannot be decoded as a
// supported image format. Analysis aborts before any network call.
var ErrInvalidImage = errors.New("unsupported or undecodable image")

// Orientation extracts the EXIF orientation tag from JPEG data, defaulting
// to 1 (upright) when there is no usable EXIF block.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	val, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return val
}

// remap builds a new image by mapping each destination pixel back to a
// source pixel. swapAxes transposes width and height first.
func remap(img image.Image, swapAxes bool, src func(x, y, w, h int) (int, int)) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	dw, dh := w, h
	if swapAxes {
		dw, dh = h, w
	}

	out := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := src(x, y, w, h)
			out.Set(dx, dy, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out
}

// CorrectOrientation applies the EXIF orientation so the pixels are upright.
func CorrectOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2: // flip horizontal
		return remap(img, false, func(x, y, w, h int) (int, int) { return w - 1 - x, y })
	case 3: // rotate 180
		return remap(img, false, func(x, y, w, h int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4: // flip vertical
		return remap(img, false, func(x, y, w, h int) (int, int) { return x, h - 1 - y })
	case 5: // transpose
		return remap(img, true, func(x, y, w, h int) (int, int) { return y, x })
	case 6: // rotate 90 clockwise
		return remap(img, true, func(x, y, w, h int) (int, int) { return h - 1 - y, x })
	case 7: // transverse
		return remap(img, true, func(x, y, w, h int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8: // rotate 90 counter-clockwise
		return remap(img, true, func(x, y, w, h int) (int, int) { return y, w - 1 - x })
	default:
		return img
	}
}

// Normalize validates and prepares an uploaded image for the vision model:
// decode, fix EXIF orientation, downscale so the longest side fits within
// maxDimension, and re-encode as JPEG. Input already within limits is
// returned untouched.
func Normalize(data []byte, maxDimension int) ([]byte, error) {
	orientation := Orientation(data)

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	if orientation == 1 && originalWidth <= maxDimension && originalHeight <= maxDimension {
		return data, nil
	}

	if orientation != 1 {
		img = CorrectOrientation(img, orientation)
		bounds = img.Bounds()
		originalWidth = bounds.Dx()
		originalHeight = bounds.Dy()
	}

	newWidth, newHeight := originalWidth, originalHeight
	if originalWidth > maxDimension || originalHeight > maxDimension {
		// Scale to fit within maxDimension while preserving aspect ratio
		scale := float64(maxDimension) / float64(originalWidth)
		if s := float64(maxDimension) / float64(originalHeight); s < scale {
			scale = s
		}

		newWidth = int(float64(originalWidth) * scale)
		newHeight = int(float64(originalHeight) * scale)
		if newWidth > maxDimension {
			newWidth = maxDimension
		}
		if newHeight > maxDimension {
			newHeight = maxDimension
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode normalized image: %w", err)
	}

	log.Infof("Image normalized: %s %dx%d -> jpeg %dx%d (%d -> %d bytes, orientation %d)",
		format, originalWidth, originalHeight, newWidth, newHeight, len(data), buf.Len(), orientation)

	return buf.Bytes(), nil
}
