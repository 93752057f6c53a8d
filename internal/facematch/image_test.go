package facematch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// uniformImage creates an RGBA image filled with a single gray level.
func uniformImage(width, height int, level uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{level, level, level, 255}
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	return img
}

// halfImage creates an image whose left half is dark and right half is bright.
func halfImage(width, height int, dark, bright uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := dark
			if x >= width/2 {
				v = bright
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	data := encodePNG(t, uniformImage(40, 30, 128))

	img, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Width() != 40 || img.Height() != 30 {
		t.Errorf("expected 40x30, got %dx%d", img.Width(), img.Height())
	}
	if img.gray.Pix[0] != 128 {
		t.Errorf("expected gray level 128, got %d", img.gray.Pix[0])
	}
}

func TestDecodeImage_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, uniformImage(16, 16, 200), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeImage(&buf)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Empty() {
		t.Error("expected non-empty image")
	}
}

func TestDecodeImage_Garbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestNewImage_Luma(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	gray := NewImage(img)

	// 0.299 * 255 = 76.245
	if gray.gray.Pix[0] != 76 {
		t.Errorf("expected luma 76 for pure red, got %d", gray.gray.Pix[0])
	}
}

func TestNewImage_OffsetBounds(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	src.SetGray(5, 5, color.Gray{Y: 99})
	sub := src.SubImage(image.Rect(5, 5, 8, 8))

	img := NewImage(sub)

	if img.Width() != 3 || img.Height() != 3 {
		t.Fatalf("expected 3x3, got %dx%d", img.Width(), img.Height())
	}
	if img.gray.Pix[0] != 99 {
		t.Errorf("expected sub-image origin to map to (0,0), got %d", img.gray.Pix[0])
	}
}

func TestImageResize(t *testing.T) {
	img := NewImage(uniformImage(200, 200, 90))

	resized := img.Resize(50, 80)

	if resized.Width() != 50 || resized.Height() != 80 {
		t.Fatalf("expected 50x80, got %dx%d", resized.Width(), resized.Height())
	}
	if img.Width() != 200 {
		t.Error("Resize must not modify the receiver")
	}
	for _, v := range resized.gray.Pix {
		if v != 90 {
			t.Fatalf("expected uniform level 90 after resize, got %d", v)
		}
	}

	if !(Image{}).Resize(10, 10).Empty() {
		t.Error("resizing an empty image should stay empty")
	}
}

func TestImageFit(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"already small", 100, 80, 100, 80},
		{"landscape", 1000, 500, 200, 100},
		{"portrait", 300, 600, 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewImage(uniformImage(tt.width, tt.height, 10)).Fit(200)
			if img.Width() != tt.wantW || img.Height() != tt.wantH {
				t.Errorf("Fit(200) of %dx%d = %dx%d, want %dx%d",
					tt.width, tt.height, img.Width(), img.Height(), tt.wantW, tt.wantH)
			}
		})
	}
}

// declaredSizePNG encodes a 1x1 PNG and rewrites its IHDR to claim width x height.
// Only the header is valid for the claimed size, which is all a size check may read.
func declaredSizePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	// 8-byte signature, then IHDR: length(4) type(4) data(13) crc(4).
	binary.BigEndian.PutUint32(b[16:20], width)
	binary.BigEndian.PutUint32(b[20:24], height)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestDecodeImage_DeclaredSizeLimit(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
		wantTooLarge  bool
	}{
		{"bomb", 12000, 12000, true},
		{"wide strip", 1 << 20, 17, true},
		{"at limit", 4096, 4096, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeImage(bytes.NewReader(declaredSizePNG(t, tt.width, tt.height)))
			if err == nil {
				t.Fatal("expected an error, pixel data is truncated")
			}
			if got := errors.Is(err, ErrImageTooLarge); got != tt.wantTooLarge {
				t.Errorf("expected ErrImageTooLarge=%v, got %v", tt.wantTooLarge, err)
			}
		})
	}
}

func TestDecodeImage_ReplaysHeader(t *testing.T) {
	img, err := DecodeImage(bytes.NewReader(encodePNG(t, halfImage(300, 200, 10, 240))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width() != 300 || img.Height() != 200 {
		t.Errorf("expected 300x200, got %dx%d", img.Width(), img.Height())
	}
}
