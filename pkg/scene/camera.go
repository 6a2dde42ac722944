package scene

import (
	"math"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// CameraConfig describes a pinhole camera the way scenes set it up
type CameraConfig struct {
	Center      core.Vec3 // eye position
	LookAt      core.Vec3 // point the camera faces
	Up          core.Vec3 // world up hint
	Width       int       // image width in pixels
	Height      int       // image height in pixels, derived from AspectRatio when zero
	AspectRatio float64   // width / height
	VFov        float64   // vertical field of view in degrees
}

// MergeCameraConfig overlays the non-zero fields of override onto base
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if !override.Center.IsZero() {
		result.Center = override.Center
	}
	if !override.LookAt.IsZero() {
		result.LookAt = override.LookAt
	}
	if !override.Up.IsZero() {
		result.Up = override.Up
	}
	if override.Width > 0 {
		result.Width = override.Width
	}
	if override.Height > 0 {
		result.Height = override.Height
	}
	if override.AspectRatio > 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov > 0 {
		result.VFov = override.VFov
	}
	return result
}

// Camera is the derived basis the ray generator consumes
type Camera struct {
	Position    core.Vec3
	View        core.Vec3 // unit forward
	Right       core.Vec3 // unit, image +x
	Up          core.Vec3 // unit, toward the top row
	PixelLength core.Vec2 // view-plane size of one pixel at unit distance
	Width       int
	Height      int
}

// NewCamera derives the orthonormal basis and per-pixel increments from config
func NewCamera(config CameraConfig) Camera {
	width := max(1, config.Width)
	aspect := config.AspectRatio
	if aspect <= 0 {
		aspect = 1
	}
	height := config.Height
	if height <= 0 {
		height = max(1, int(float64(width)/aspect))
	}

	view := config.LookAt.Subtract(config.Center).Normalize()
	up := config.Up
	if up.IsZero() {
		up = core.NewVec3(0, 1, 0)
	}
	right := view.Cross(up).Normalize()
	up = right.Cross(view)

	// Half-extent of the view plane at unit distance
	yScaled := math.Tan(config.VFov * math.Pi / 360)
	xScaled := yScaled * float64(width) / float64(height)

	return Camera{
		Position:    config.Center,
		View:        view,
		Right:       right,
		Up:          up,
		PixelLength: core.NewVec2(2*xScaled/float64(width), 2*yScaled/float64(height)),
		Width:       width,
		Height:      height,
	}
}

// Direction returns the unit direction through the image-plane point (x, y), in pixels
func (c Camera) Direction(x, y float64) core.Vec3 {
	return c.View.
		Add(c.Right.Multiply(c.PixelLength.X * (x - float64(c.Width)*0.5))).
		Subtract(c.Up.Multiply(c.PixelLength.Y * (y - float64(c.Height)*0.5))).
		Normalize()
}
