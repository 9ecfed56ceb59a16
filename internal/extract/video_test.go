package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"mcapx/internal/video"
)

func nalUnit(nalType uint8, payload ...byte) []byte {
	unit := []byte{0x00, 0x00, 0x00, 0x01, nalType & 0x1f}
	return append(unit, payload...)
}

// fakePicture decodes every unit after the first failUnits into a 2x2 frame.
type fakePicture struct {
	failUnits int
	seen      int
	closed    bool
}

func (f *fakePicture) Decode(unit []byte) (image.Image, error) {
	f.seen++
	if f.seen <= f.failUnits {
		return nil, errors.New("no picture yet")
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (f *fakePicture) Close() error {
	f.closed = true
	return nil
}

func newVideoTestExtractor(t *testing.T, failUnits int) (*VideoExtractor, string, *fakePicture) {
	t.Helper()
	outDir := filepath.Join(t.TempDir(), "camera")
	fake := &fakePicture{failUnits: failUnits}
	ext, err := NewVideoExtractor("/camera", outDir, nil,
		func() (video.PictureDecoder, error) { return fake, nil }, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return ext, outDir, fake
}

func TestVideoFrameNamingFollowsDecodedFrames(t *testing.T) {
	ext, outDir, fake := newVideoTestExtractor(t, 1)

	// Three access units; the decoder produces nothing for the first, so
	// the first emitted frame carries the first recorded stamp.
	for i, stamp := range []uint64{100, 200, 300} {
		payload := compressedImagePayload(0, 0, "h264", nalUnit(uint8(i+1), 0xaa))
		err := ext.Step(&Message{Topic: "/camera", PublishTime: stamp, Data: payload})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := ext.PostProcess(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"frames/100.jpg", "frames/200.jpg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "frames/300.jpg")); !os.IsNotExist(err) {
		t.Fatal("third stamp must stay unused when only two frames decode")
	}
	if !fake.closed {
		t.Fatal("picture decoder not closed")
	}
}

func TestVideoWritesRawBitstream(t *testing.T) {
	ext, outDir, _ := newVideoTestExtractor(t, 0)

	units := [][]byte{nalUnit(7), nalUnit(5, 0x01, 0x02)}
	var want []byte
	for i, unit := range units {
		want = append(want, unit...)
		payload := compressedImagePayload(0, 0, "h264", unit)
		if err := ext.Step(&Message{Topic: "/camera", PublishTime: uint64(i), Data: payload}); err != nil {
			t.Fatal(err)
		}
	}
	if err := ext.PostProcess(context.Background()); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "raw.h264"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, raw) {
		t.Fatal("raw bitstream differs from accumulated input")
	}
}

func TestVideoTimestampAlignment(t *testing.T) {
	ext, _, _ := newVideoTestExtractor(t, 0)

	// One message carrying two access units: two decoded frames, one stamp.
	data := append(nalUnit(1, 0xaa), nalUnit(1, 0xbb)...)
	payload := compressedImagePayload(0, 0, "h264", data)
	if err := ext.Step(&Message{Topic: "/camera", PublishTime: 100, Data: payload}); err != nil {
		t.Fatal(err)
	}

	err := ext.PostProcess(context.Background())
	if !errors.Is(err, ErrTimestampAlignment) {
		t.Fatalf("want ErrTimestampAlignment, got %v", err)
	}
}

func TestVideoPostProcessCancellation(t *testing.T) {
	ext, _, _ := newVideoTestExtractor(t, 0)

	payload := compressedImagePayload(0, 0, "h264", nalUnit(1, 0xaa))
	if err := ext.Step(&Message{Topic: "/camera", PublishTime: 100, Data: payload}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ext.PostProcess(ctx); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("want ErrInterrupted, got %v", err)
	}
}

func TestVideoStillImagePassthrough(t *testing.T) {
	ext, outDir, _ := newVideoTestExtractor(t, 0)

	payload := compressedImagePayload(12, 34, "jpeg", []byte{0xff, 0xd8, 0xff})
	if err := ext.Step(&Message{Topic: "/camera", PublishTime: 1, Data: payload}); err != nil {
		t.Fatal(err)
	}
	// Stills never accumulate, so finalization has nothing to drain.
	if err := ext.PostProcess(context.Background()); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "12-34.jpeg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal([]byte{0xff, 0xd8, 0xff}, got) {
		t.Fatal("still payload altered on disk")
	}
	if _, err := os.Stat(filepath.Join(outDir, "raw.h264")); !os.IsNotExist(err) {
		t.Fatal("still-only topic must not write a bitstream")
	}
}
