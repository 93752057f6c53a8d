package handlers

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/actuator"
	"github.com/kozaktomas/facegate/internal/audit"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/gallery"
)

var testStart = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// splitImage is dark on the left and bright on the right.
func splitImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := uint8(30)
			if x >= width/2 {
				v = 220
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func uniformImage(width, height int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
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

type testEnv struct {
	clock       *access.ManualClock
	gateway     *actuator.MockGateway
	broadcaster *audit.Broadcaster
	controller  *access.Controller
	gallery     *gallery.Gallery
}

// newTestEnv enrols "carol" with a split reference image.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:       access.NewManualClock(testStart),
		gateway:     actuator.NewMockGateway(),
		broadcaster: audit.NewBroadcaster(10),
		gallery: gallery.New(facematch.Identity{
			Label:     "carol",
			Reference: facematch.NewImage(splitImage(48, 48)),
		}),
	}
	cfg := testConfig()
	env.controller = access.NewController(
		access.Config{
			Threshold: cfg.Access.Threshold,
			Timing: access.Timing{
				CooldownPeriod: cfg.Access.CooldownPeriod,
				UnlockDuration: cfg.Access.UnlockDuration,
			},
		},
		env.gallery, env.gateway,
		access.WithClock(env.clock),
		access.WithEmitter(env.broadcaster),
	)
	return env
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Gallery.Dir = "testdata/faces"
	return cfg
}
