package material

import (
	"fmt"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// Kind selects the BSDF a material scatters with
type Kind uint8

const (
	Diffuse Kind = iota
	Specular
	Dielectric
)

func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Dielectric:
		return "dielectric"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Texture offsets that do not point into the texel array
const (
	NoTexture        = -1
	TextureLoadError = -2
)

// TextureRef locates one image in the flattened texel array
type TextureRef struct {
	Offset int // first texel, or NoTexture / TextureLoadError
	Width  int
	Height int
}

// NoTextureRef is the reference carried by untextured materials
var NoTextureRef = TextureRef{Offset: NoTexture}

// Present reports whether the reference points at texels
func (r TextureRef) Present() bool {
	return r.Offset >= 0
}

// Failed reports whether the texture could not be loaded
func (r TextureRef) Failed() bool {
	return r.Offset == TextureLoadError
}

// Material is the flat record the shader reads for every hit
type Material struct {
	Color     core.Vec3
	Emittance float64 // > 0 marks a light source
	Kind      Kind
	Fuzz      float64 // specular only: 0 is a perfect mirror
	IOR       float64 // dielectric only
	Texture   TextureRef
	NormalMap TextureRef
}

// NewDiffuse creates a lambertian material
func NewDiffuse(color core.Vec3) Material {
	return Material{Color: color, Kind: Diffuse, Texture: NoTextureRef, NormalMap: NoTextureRef}
}

// NewEmissive creates a light with the given color and scalar emittance
func NewEmissive(color core.Vec3, emittance float64) Material {
	m := NewDiffuse(color)
	m.Emittance = emittance
	return m
}

// NewSpecular creates a metal-like reflector. Fuzz is clamped to [0, 1].
func NewSpecular(color core.Vec3, fuzz float64) Material {
	m := NewDiffuse(color)
	m.Kind = Specular
	m.Fuzz = max(0, min(1, fuzz))
	return m
}

// NewDielectric creates a clear refractive material such as glass (IOR 1.5)
func NewDielectric(ior float64) Material {
	m := NewDiffuse(core.NewVec3(1, 1, 1))
	m.Kind = Dielectric
	m.IOR = ior
	return m
}

// WithTexture returns a copy of m whose albedo comes from the referenced image
func (m Material) WithTexture(ref TextureRef) Material {
	m.Texture = ref
	return m
}

// WithNormalMap returns a copy of m whose shading normal comes from the referenced image
func (m Material) WithNormalMap(ref TextureRef) Material {
	m.NormalMap = ref
	return m
}

// IsEmissive reports whether hitting this material ends the path at a light
func (m *Material) IsEmissive() bool {
	return m.Emittance > 0
}

// LoadFailed reports whether either image reference carries the load-error sentinel
func (m *Material) LoadFailed() bool {
	return m.Texture.Failed() || m.NormalMap.Failed()
}

// Validate checks that the image references fit inside a texel array of length n
func (m *Material) Validate(n int) error {
	for _, ref := range [2]TextureRef{m.Texture, m.NormalMap} {
		if !ref.Present() {
			if ref.Offset != NoTexture && ref.Offset != TextureLoadError {
				return fmt.Errorf("invalid texture offset %d", ref.Offset)
			}
			continue
		}
		if ref.Width <= 0 || ref.Height <= 0 {
			return fmt.Errorf("texture at offset %d has size %dx%d", ref.Offset, ref.Width, ref.Height)
		}
		if end := ref.Offset + ref.Width*ref.Height; end > n {
			return fmt.Errorf("texture at offset %d ends at %d, past %d texels", ref.Offset, end, n)
		}
	}
	if m.Kind == Dielectric && m.IOR <= 0 {
		return fmt.Errorf("dielectric with non-positive IOR %g", m.IOR)
	}
	return nil
}
