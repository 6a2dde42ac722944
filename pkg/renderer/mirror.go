package renderer

import (
	"fmt"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

// sceneMirror is the session's read-only copy of the scene arrays
type sceneMirror struct {
	primitives buffer[geometry.Primitive]
	materials  buffer[material.Material]
	texels     buffer[core.Vec3]
	nodes      buffer[geometry.LinearNode]
}

func newSceneMirror() sceneMirror {
	return sceneMirror{
		primitives: newBuffer[geometry.Primitive]("primitives"),
		materials:  newBuffer[material.Material]("materials"),
		texels:     newBuffer[core.Vec3]("texels"),
		nodes:      newBuffer[geometry.LinearNode]("nodes"),
	}
}

// upload allocates every mirror buffer and copies the scene into it
func (m *sceneMirror) upload(sc *scene.Scene) error {
	if err := m.primitives.allocate(len(sc.Primitives)); err != nil {
		return err
	}
	if err := m.primitives.upload(sc.Primitives); err != nil {
		return err
	}
	if err := m.materials.allocate(len(sc.Materials)); err != nil {
		return err
	}
	if err := m.materials.upload(sc.Materials); err != nil {
		return err
	}
	if err := m.texels.allocate(len(sc.Texels)); err != nil {
		return err
	}
	if err := m.texels.upload(sc.Texels); err != nil {
		return err
	}
	if err := m.nodes.allocate(len(sc.Nodes)); err != nil {
		return err
	}
	return m.nodes.upload(sc.Nodes)
}

func (m *sceneMirror) release() {
	m.primitives.release()
	m.materials.release()
	m.texels.release()
	m.nodes.release()
}

// validateScene checks everything the kernels index without bounds checks of
// their own. Tree depth is the builder's responsibility and is not checked.
func validateScene(sc *scene.Scene, opts Options) error {
	if sc == nil {
		return fmt.Errorf("nil scene")
	}
	if sc.Width <= 0 || sc.Height <= 0 {
		return fmt.Errorf("image size %dx%d", sc.Width, sc.Height)
	}
	if sc.Camera.Width != sc.Width || sc.Camera.Height != sc.Height {
		return fmt.Errorf("camera is %dx%d but image is %dx%d", sc.Camera.Width, sc.Camera.Height, sc.Width, sc.Height)
	}
	if sc.MaxBounces < 0 {
		return fmt.Errorf("negative bounce budget %d", sc.MaxBounces)
	}

	for i := range sc.Primitives {
		if id := sc.Primitives[i].MaterialID; id < 0 || id >= len(sc.Materials) {
			return fmt.Errorf("primitive %d references material %d of %d", i, id, len(sc.Materials))
		}
	}
	for i := range sc.Materials {
		if err := sc.Materials[i].Validate(len(sc.Texels)); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
	}

	if opts.UseBVH && len(sc.Primitives) > 0 && len(sc.Nodes) == 0 {
		return fmt.Errorf("scene has %d primitives but no BVH nodes", len(sc.Primitives))
	}
	return validateNodes(sc.Nodes, len(sc.Primitives))
}

// validateNodes checks child and primitive ranges of a flattened tree
func validateNodes(nodes []geometry.LinearNode, numPrims int) error {
	for i, node := range nodes {
		if node.Axis > 2 {
			return fmt.Errorf("node %d has split axis %d", i, node.Axis)
		}
		if node.IsLeaf() {
			if node.Offset < 0 || int(node.Offset)+int(node.Count) > numPrims {
				return fmt.Errorf("leaf %d covers primitives [%d, %d) of %d", i, node.Offset, node.Offset+node.Count, numPrims)
			}
			continue
		}
		if i+1 >= len(nodes) || int(node.Offset) <= i+1 || int(node.Offset) >= len(nodes) {
			return fmt.Errorf("interior node %d has children %d and %d of %d", i, i+1, node.Offset, len(nodes))
		}
	}
	return nil
}
