package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/golang/snappy"

	"github.com/df07/go-wavefront-pathtracer/pkg/renderer"
)

// Frame encodings accepted by the WebSocket endpoint
const (
	EncodingJSON   = "json"
	EncodingSnappy = "snappy"
)

// frameMagic prefixes every binary frame
var frameMagic = [4]byte{'W', 'F', 'R', 'M'}

// FrameHeaderSize is the length of the binary frame header
const FrameHeaderSize = 20

// FrameUpdate is the JSON message sent after every pass
type FrameUpdate struct {
	Type             string  `json:"type"` // "frame"
	PassNumber       int     `json:"passNumber"`
	TotalPasses      int     `json:"totalPasses"`
	Samples          int     `json:"samples"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	ElapsedMs        int64   `json:"elapsedMs"`
	AverageLuminance float64 `json:"averageLuminance"`
	ActivePaths      []int   `json:"activePaths"` // per bounce, last iteration
	IsComplete       bool    `json:"isComplete"`
	ImageData        string  `json:"imageData,omitempty"` // Base64 encoded PNG
}

// StreamMessage carries non-frame events on the WebSocket
type StreamMessage struct {
	Type     string   `json:"type"` // "start", "error", "complete"
	Message  string   `json:"message,omitempty"`
	Scene    string   `json:"scene,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// FrameHeader describes a binary frame
type FrameHeader struct {
	PassNumber int
	Samples    int
	Width      int
	Height     int
}

// newFrameUpdate builds the JSON update for a pass, embedding the image as PNG
func newFrameUpdate(result renderer.PassResult, totalPasses int, elapsedMs int64) (FrameUpdate, error) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return FrameUpdate{}, fmt.Errorf("failed to encode image: %w", err)
	}
	bounds := result.Image.Bounds()
	return FrameUpdate{
		Type:             "frame",
		PassNumber:       result.PassNumber,
		TotalPasses:      totalPasses,
		Samples:          result.Stats.TotalSamples,
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
		ElapsedMs:        elapsedMs,
		AverageLuminance: result.Stats.AverageLuminance,
		ActivePaths:      result.Stats.LastIteration.ActivePaths,
		IsComplete:       result.IsLast,
		ImageData:        imageData,
	}, nil
}

// EncodeSnappyFrame packs a pass into a binary frame: a little-endian header
// followed by the snappy-compressed RGBA pixels
func EncodeSnappyFrame(header FrameHeader, img *image.RGBA) []byte {
	compressed := snappy.Encode(nil, img.Pix)
	frame := make([]byte, FrameHeaderSize, FrameHeaderSize+len(compressed))
	copy(frame[0:4], frameMagic[:])
	binary.LittleEndian.PutUint32(frame[4:8], uint32(header.PassNumber))
	binary.LittleEndian.PutUint32(frame[8:12], uint32(header.Samples))
	binary.LittleEndian.PutUint32(frame[12:16], uint32(header.Width))
	binary.LittleEndian.PutUint32(frame[16:20], uint32(header.Height))
	return append(frame, compressed...)
}

// DecodeSnappyFrame unpacks a frame produced by EncodeSnappyFrame
func DecodeSnappyFrame(data []byte) (FrameHeader, *image.RGBA, error) {
	if len(data) < FrameHeaderSize {
		return FrameHeader{}, nil, errors.New("frame too short")
	}
	if [4]byte(data[0:4]) != frameMagic {
		return FrameHeader{}, nil, errors.New("not a frame")
	}
	header := FrameHeader{
		PassNumber: int(binary.LittleEndian.Uint32(data[4:8])),
		Samples:    int(binary.LittleEndian.Uint32(data[8:12])),
		Width:      int(binary.LittleEndian.Uint32(data[12:16])),
		Height:     int(binary.LittleEndian.Uint32(data[16:20])),
	}
	if header.Width <= 0 || header.Height <= 0 || header.Width > maxImageSize || header.Height > maxImageSize {
		return header, nil, fmt.Errorf("invalid frame size %dx%d", header.Width, header.Height)
	}

	n, err := snappy.DecodedLen(data[FrameHeaderSize:])
	if err != nil {
		return header, nil, fmt.Errorf("decode frame: %w", err)
	}
	if want := header.Width * header.Height * 4; n != want {
		return header, nil, fmt.Errorf("frame holds %d bytes, want %d", n, want)
	}
	img := image.NewRGBA(image.Rect(0, 0, header.Width, header.Height))
	if _, err := snappy.Decode(img.Pix, data[FrameHeaderSize:]); err != nil {
		return header, nil, fmt.Errorf("decode frame: %w", err)
	}
	return header, img, nil
}
