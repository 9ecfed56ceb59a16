// Package imaging holds fixed pixel-format conversion routines for decoded
// sensor frames.
package imaging

import (
	"errors"
	"fmt"
	"image"
)

var ErrShortBuffer = errors.New("imaging: buffer too short for frame")

// NV12ToRGB converts an NV12 frame (full luma plane followed by one
// interleaved half-resolution chroma plane) into an interleaved RGB buffer.
// width and height describe the luma plane. BT.601 coefficients.
func NV12ToRGB(width, height int, data []byte) ([]byte, error) {
	ySize := width * height
	uvSize := ySize / 2
	if len(data) < ySize+uvSize {
		return nil, fmt.Errorf("%w: nv12 %dx%d needs %d bytes, have %d",
			ErrShortBuffer, width, height, ySize+uvSize, len(data))
	}

	rgb := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			luma := int(data[y*width+x])
			uvOff := ySize + (y/2)*width + (x &^ 1)
			u := int(data[uvOff]) - 128
			v := int(data[uvOff+1]) - 128

			i := (y*width + x) * 3
			rgb[i] = clampU8(luma + ((359 * v) >> 8))
			rgb[i+1] = clampU8(luma - ((88*u + 183*v) >> 8))
			rgb[i+2] = clampU8(luma + ((454 * u) >> 8))
		}
	}
	return rgb, nil
}

// RGBImage wraps an interleaved RGB buffer into an image for encoding.
func RGBImage(width, height int, rgb []byte) (*image.RGBA, error) {
	if len(rgb) < width*height*3 {
		return nil, fmt.Errorf("%w: rgb %dx%d needs %d bytes, have %d",
			ErrShortBuffer, width, height, width*height*3, len(rgb))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := (y*width + x) * 3
			dst := img.PixOffset(x, y)
			img.Pix[dst] = rgb[src]
			img.Pix[dst+1] = rgb[src+1]
			img.Pix[dst+2] = rgb[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

// FlattenRGB converts any decoded picture into an interleaved RGB buffer.
func FlattenRGB(img image.Image) (width, height int, rgb []byte) {
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	rgb = make([]byte, width*height*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rgb[i] = uint8(r >> 8)
			rgb[i+1] = uint8(g >> 8)
			rgb[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return width, height, rgb
}

func clampU8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
