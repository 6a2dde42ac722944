package server

import (
	"image"
	"image/color"
	"testing"
)

func TestSnappyFrameRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 50), uint8(y * 80), 7, 255})
		}
	}

	frame := EncodeSnappyFrame(FrameHeader{PassNumber: 4, Samples: 33, Width: 5, Height: 3}, img)
	header, decoded, err := DecodeSnappyFrame(frame)
	if err != nil {
		t.Fatalf("DecodeSnappyFrame failed: %v", err)
	}
	if header != (FrameHeader{PassNumber: 4, Samples: 33, Width: 5, Height: 3}) {
		t.Errorf("Unexpected header: %+v", header)
	}
	if string(decoded.Pix) != string(img.Pix) {
		t.Error("Decoded pixels differ from the encoded image")
	}
}

func TestDecodeSnappyFrameErrors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	valid := EncodeSnappyFrame(FrameHeader{PassNumber: 1, Samples: 1, Width: 2, Height: 2}, img)

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 'X'

	// Header claims a larger image than the payload holds
	wrongSize := append([]byte(nil), valid...)
	wrongSize[12] = 3

	zeroSize := append([]byte(nil), valid...)
	zeroSize[12] = 0

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", valid[:FrameHeaderSize-1]},
		{"bad magic", badMagic},
		{"size mismatch", wrongSize},
		{"zero width", zeroSize},
		{"corrupt body", append(append([]byte(nil), valid[:FrameHeaderSize]...), 0xff, 0xff, 0xff)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeSnappyFrame(tt.data); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
