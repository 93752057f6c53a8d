package facematch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/facegate/internal/constants"
)

var (
	// ErrEmptyImage is returned when an image has no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrImageTooLarge is returned when the header declares more than constants.MaxFacePixels.
	ErrImageTooLarge = errors.New("image too large")
)

// Image is an immutable 8-bit grayscale pixel buffer. The zero value is empty.
type Image struct {
	gray *image.Gray
}

// NewImage converts src to grayscale and copies it into a new Image.
func NewImage(src image.Image) Image {
	return Image{gray: toGray(src)}
}

// DecodeImage decodes any registered format (JPEG, PNG, GIF, BMP, WebP).
// The header is checked first, so an image declaring more than
// constants.MaxFacePixels fails with ErrImageTooLarge before any pixel is allocated.
func DecodeImage(r io.Reader) (Image, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, ErrEmptyImage
	}
	if cfg.Width > constants.MaxFacePixels/cfg.Height {
		return Image{}, fmt.Errorf("%dx%d exceeds %d pixels: %w", cfg.Width, cfg.Height, constants.MaxFacePixels, ErrImageTooLarge)
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	out := NewImage(img)
	if out.Empty() {
		return Image{}, ErrEmptyImage
	}
	return out, nil
}

// Width returns the image width in pixels.
func (i Image) Width() int {
	if i.gray == nil {
		return 0
	}
	return i.gray.Rect.Dx()
}

// Height returns the image height in pixels.
func (i Image) Height() int {
	if i.gray == nil {
		return 0
	}
	return i.gray.Rect.Dy()
}

// Empty reports whether the image has no pixels.
func (i Image) Empty() bool {
	return i.Width() == 0 || i.Height() == 0
}

// Resize scales the image to exactly width x height with bilinear filtering.
// The receiver is left untouched.
func (i Image) Resize(width, height int) Image {
	if i.Empty() || width <= 0 || height <= 0 {
		return Image{}
	}
	if i.Width() == width && i.Height() == height {
		return i
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), i.gray, i.gray.Bounds(), draw.Src, nil)
	return Image{gray: dst}
}

// Fit downscales the image so neither side exceeds maxSize, keeping the aspect ratio.
func (i Image) Fit(maxSize int) Image {
	width, height := i.Width(), i.Height()
	if width <= maxSize && height <= maxSize {
		return i
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}
	return i.Resize(newWidth, newHeight)
}

// Crop returns a copy of the region r, clamped to the image bounds.
func (i Image) Crop(r Rect) (Image, error) {
	region := r.clamp(i.Width(), i.Height())
	if region.Empty() {
		return Image{}, fmt.Errorf("crop %v outside %dx%d image: %w", r, i.Width(), i.Height(), ErrEmptyImage)
	}
	dst := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Copy(dst, image.Point{}, i.gray, region, draw.Src, nil)
	return Image{gray: dst}, nil
}

// toGray converts an image to an 8-bit grayscale buffer anchored at (0, 0).
func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	if g, ok := src.(*image.Gray); ok {
		for y := range height {
			row := g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+width], row[:width])
		}
		return dst
	}

	for y := range height {
		for x := range width {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma formula.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			dst.Pix[y*dst.Stride+x] = uint8(min(255, math.Round(luma)))
		}
	}
	return dst
}
