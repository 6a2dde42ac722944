package material

import (
	"math"
	"testing"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
)

// fixedSampler returns the same numbers on every call
type fixedSampler struct {
	v float64
}

func (s fixedSampler) Get1D() float64 { return s.v }
func (s fixedSampler) Get2D() core.Vec2 { return core.NewVec2(s.v, s.v) }

func TestDiffuse_Sample(t *testing.T) {
	m := NewDiffuse(core.NewVec3(0.5, 0.5, 0.5))
	normal := core.NewVec3(0, 0, 1)
	incoming := core.NewVec3(0, 0, -1)

	for i := 0; i < 200; i++ {
		sampler := core.NewPathSampler(i, 17, 1)
		s, ok := m.Sample(incoming, normal, true, &sampler)
		if !ok {
			t.Fatalf("sample %d: expected diffuse scatter", i)
		}
		if s.Direction.Dot(normal) <= 0 {
			t.Errorf("sample %d: direction %v below surface", i, s.Direction)
		}
		if math.Abs(s.Direction.Length()-1) > 1e-9 {
			t.Errorf("sample %d: expected unit direction, got %f", i, s.Direction.Length())
		}
		// albedo/π * cos / (cos/π) leaves only the albedo, which is applied separately
		if math.Abs(s.Weight-1) > 1e-9 {
			t.Errorf("sample %d: expected unit weight, got %f", i, s.Weight)
		}
		if s.IsSpecular() {
			t.Errorf("sample %d: diffuse sample reported as specular", i)
		}
	}
}

func TestDiffusePDF(t *testing.T) {
	normal := core.NewVec3(0, 1, 0)
	if pdf := DiffusePDF(normal, normal); math.Abs(pdf-1/math.Pi) > 1e-12 {
		t.Errorf("Expected 1/π at the pole, got %f", pdf)
	}
	if pdf := DiffusePDF(core.NewVec3(0, -1, 0), normal); pdf != 0 {
		t.Errorf("Expected 0 below the surface, got %f", pdf)
	}
	if f := EvaluateDiffuse(core.NewVec3(1, 1, 1), core.NewVec3(0, -1, 0), normal); !f.IsZero() {
		t.Errorf("Expected no reflection below the surface, got %v", f)
	}
}

func TestSpecular_PerfectReflection(t *testing.T) {
	m := NewSpecular(core.NewVec3(0.9, 0.9, 0.9), 0)
	incoming := core.NewVec3(0, -1, -1).Normalize()
	normal := core.NewVec3(0, 0, 1)

	s, ok := m.Sample(incoming, normal, true, fixedSampler{0.5})
	if !ok {
		t.Fatal("Expected mirror to scatter")
	}
	expected := core.NewVec3(0, -1, 1).Normalize()
	if s.Direction.Subtract(expected).Length() > 1e-10 {
		t.Errorf("Perfect reflection failed: expected %v, got %v", expected, s.Direction)
	}
	if !s.IsSpecular() || s.Weight != 1 {
		t.Errorf("Expected delta sample with unit weight, got %+v", s)
	}
}

func TestSpecular_FuzzStaysAboveSurface(t *testing.T) {
	m := NewSpecular(core.NewVec3(1, 1, 1), 1)
	incoming := core.NewVec3(1, 0, -1).Normalize()
	normal := core.NewVec3(0, 0, 1)

	for i := 0; i < 200; i++ {
		sampler := core.NewPathSampler(3, i, 2)
		s, ok := m.Sample(incoming, normal, true, &sampler)
		if ok && s.Direction.Dot(normal) <= 0 {
			t.Errorf("sample %d: fuzzed direction %v below surface", i, s.Direction)
		}
	}
}

func TestDielectric_Sample(t *testing.T) {
	glass := NewDielectric(1.5)
	normal := core.NewVec3(0, 0, 1)

	tests := []struct {
		name            string
		incoming        core.Vec3
		normal          core.Vec3
		frontFace       bool
		u               float64
		wantTransmitted bool
	}{
		{
			name:            "head-on entry refracts",
			incoming:        core.NewVec3(0, 0, -1),
			normal:          normal,
			frontFace:       true,
			u:               0.99, // above the ~4% Fresnel reflectance
			wantTransmitted: true,
		},
		{
			name:            "head-on entry reflects on low sample",
			incoming:        core.NewVec3(0, 0, -1),
			normal:          normal,
			frontFace:       true,
			u:               0.01,
			wantTransmitted: false,
		},
		{
			name:            "grazing exit is totally internally reflected",
			incoming:        core.NewVec3(0.9, 0, 0.1).Normalize(),
			normal:          core.NewVec3(0, 0, -1),
			frontFace:       false,
			u:               0.99,
			wantTransmitted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := glass.Sample(tt.incoming, tt.normal, tt.frontFace, fixedSampler{tt.u})
			if !ok {
				t.Fatal("Dielectric should always scatter")
			}
			if s.Transmitted != tt.wantTransmitted {
				t.Errorf("Expected transmitted=%t, got %t", tt.wantTransmitted, s.Transmitted)
			}
			if math.Abs(s.Direction.Length()-1) > 1e-9 {
				t.Errorf("Expected unit direction, got length %f", s.Direction.Length())
			}
			side := s.Direction.Dot(tt.normal)
			if tt.wantTransmitted && side >= 0 {
				t.Errorf("Expected refracted ray through the surface, got %v", s.Direction)
			}
			if !tt.wantTransmitted && side <= 0 {
				t.Errorf("Expected reflected ray on the incoming side, got %v", s.Direction)
			}
		})
	}
}
