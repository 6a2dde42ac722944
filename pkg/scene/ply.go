package scene

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
)

// PLYMesh is the triangle data read from a PLY file. Optional attributes are
// empty when the file does not carry them.
type PLYMesh struct {
	Positions []core.Vec3
	Normals   []core.Vec3
	UVs       []core.Vec2
	Colors    []core.Vec3 // per vertex, in [0, 1]
	Faces     []int       // 3 indices per triangle; polygons are fanned
}

type plyProperty struct {
	name      string
	typ       string // scalar type, or the item type of a list
	list      bool
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   string
	elements []plyElement
}

// plyValues reads one scalar at a time in either encoding
type plyValues interface {
	scalar(typ string) (float64, error)
}

// LoadPLY reads a PLY file in ascii or binary encoding
func LoadPLY(path string) (*PLYMesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mesh, nil
}

// ReadPLY decodes a PLY stream. Vertex positions, normals, texture
// coordinates and colours are kept; other elements and properties are skipped.
func ReadPLY(r io.Reader) (*PLYMesh, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValues
	switch header.format {
	case "ascii":
		scanner := bufio.NewScanner(br)
		scanner.Split(bufio.ScanWords)
		values = &plyASCII{scanner: scanner}
	case "binary_little_endian":
		values = &plyBinary{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinary{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.format)
	}

	mesh := &PLYMesh{}
	for _, element := range header.elements {
		if err := mesh.readElement(element, values); err != nil {
			return nil, err
		}
	}
	if err := mesh.validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func parsePLYHeader(r *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}
	first := true
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended early: %w", err)
		}
		parts := strings.Fields(line)
		if first {
			if len(parts) != 1 || parts[0] != "ply" {
				return nil, fmt.Errorf("missing ply magic")
			}
			first = false
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.format == "" {
				return nil, fmt.Errorf("missing format line")
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line %q", strings.TrimSpace(line))
			}
			header.format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.elements = append(header.elements, plyElement{name: parts[1], count: count})
		case "property":
			if len(header.elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			current := &header.elements[len(header.elements)-1]
			current.props = append(current.props, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		prop := plyProperty{name: parts[3], typ: parts[2], list: true, countType: parts[1]}
		if plyTypeSize(prop.countType) == 0 || plyTypeSize(prop.typ) == 0 {
			return prop, fmt.Errorf("unknown type in list property %s", prop.name)
		}
		return prop, nil
	}
	if len(parts) != 2 {
		return plyProperty{}, fmt.Errorf("invalid property definition %q", strings.Join(parts, " "))
	}
	if plyTypeSize(parts[0]) == 0 {
		return plyProperty{}, fmt.Errorf("unknown type %q for property %s", parts[0], parts[1])
	}
	return plyProperty{name: parts[1], typ: parts[0]}, nil
}

func (m *PLYMesh) readElement(element plyElement, values plyValues) error {
	switch element.name {
	case "vertex":
		return m.readVertices(element, values)
	case "face":
		return m.readFaces(element, values)
	}
	for i := 0; i < element.count; i++ {
		for _, prop := range element.props {
			if _, err := readPLYProperty(values, prop); err != nil {
				return fmt.Errorf("%s %d: %w", element.name, i, err)
			}
		}
	}
	return nil
}

func (m *PLYMesh) readVertices(element plyElement, values plyValues) error {
	has := map[string]bool{}
	for _, prop := range element.props {
		has[prop.name] = true
	}
	hasNormals := has["nx"] && has["ny"] && has["nz"]
	hasUVs := (has["u"] || has["s"] || has["texture_u"]) && (has["v"] || has["t"] || has["texture_v"])
	hasColors := has["red"] && has["green"] && has["blue"]

	m.Positions = make([]core.Vec3, 0, element.count)
	for i := 0; i < element.count; i++ {
		var p, n, c core.Vec3
		var uv core.Vec2
		for _, prop := range element.props {
			vals, err := readPLYProperty(values, prop)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			if prop.list || len(vals) == 0 {
				continue
			}
			v := vals[0]
			switch prop.name {
			case "x":
				p.X = v
			case "y":
				p.Y = v
			case "z":
				p.Z = v
			case "nx":
				n.X = v
			case "ny":
				n.Y = v
			case "nz":
				n.Z = v
			case "u", "s", "texture_u":
				uv.X = v
			case "v", "t", "texture_v":
				uv.Y = v
			case "red":
				c.X = plyColor(v, prop.typ)
			case "green":
				c.Y = plyColor(v, prop.typ)
			case "blue":
				c.Z = plyColor(v, prop.typ)
			}
		}
		m.Positions = append(m.Positions, p)
		if hasNormals {
			m.Normals = append(m.Normals, n)
		}
		if hasUVs {
			m.UVs = append(m.UVs, uv)
		}
		if hasColors {
			m.Colors = append(m.Colors, c)
		}
	}
	return nil
}

func (m *PLYMesh) readFaces(element plyElement, values plyValues) error {
	m.Faces = make([]int, 0, element.count*3)
	for i := 0; i < element.count; i++ {
		for _, prop := range element.props {
			vals, err := readPLYProperty(values, prop)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if !prop.list || (prop.name != "vertex_indices" && prop.name != "vertex_index") {
				continue
			}
			if len(vals) < 3 {
				return fmt.Errorf("face %d has %d vertices", i, len(vals))
			}
			for k := 1; k+1 < len(vals); k++ {
				m.Faces = append(m.Faces, int(vals[0]), int(vals[k]), int(vals[k+1]))
			}
		}
	}
	return nil
}

func (m *PLYMesh) validate() error {
	for i, index := range m.Faces {
		if index < 0 || index >= len(m.Positions) {
			return fmt.Errorf("face %d references vertex %d of %d", i/3, index, len(m.Positions))
		}
	}
	return nil
}

// readPLYProperty reads one scalar, or every item of a list
func readPLYProperty(values plyValues, prop plyProperty) ([]float64, error) {
	if !prop.list {
		v, err := values.scalar(prop.typ)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", prop.name, err)
		}
		return []float64{v}, nil
	}
	count, err := values.scalar(prop.countType)
	if err != nil {
		return nil, fmt.Errorf("property %s count: %w", prop.name, err)
	}
	if count < 0 || count > 1<<16 {
		return nil, fmt.Errorf("property %s has invalid length %v", prop.name, count)
	}
	items := make([]float64, int(count))
	for i := range items {
		if items[i], err = values.scalar(prop.typ); err != nil {
			return nil, fmt.Errorf("property %s item %d: %w", prop.name, i, err)
		}
	}
	return items, nil
}

// plyColor normalises integer colour channels to [0, 1]
func plyColor(v float64, typ string) float64 {
	switch typ {
	case "uchar", "uint8":
		return v / 255
	case "ushort", "uint16":
		return v / 65535
	}
	return v
}

func plyTypeSize(typ string) int {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

type plyBinary struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinary) scalar(typ string) (float64, error) {
	size := plyTypeSize(typ)
	if size == 0 {
		return 0, fmt.Errorf("unknown type %q", typ)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}
	switch typ {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default:
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

type plyASCII struct {
	scanner *bufio.Scanner
}

func (a *plyASCII) scalar(typ string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(a.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", typ, a.scanner.Text())
	}
	return v, nil
}

// NewPLYScene frames the mesh of a PLY file with a camera, a ground box and
// lights. Vertex colours, when present, are averaged into the mesh albedo.
func NewPLYScene(path string, cameraOverrides ...CameraConfig) (*Scene, error) {
	mesh, err := LoadPLY(path)
	if err != nil {
		return nil, err
	}

	albedo := core.NewVec3(0.75, 0.75, 0.75)
	if len(mesh.Colors) > 0 {
		sum := core.Vec3{}
		for _, c := range mesh.Colors {
			sum = sum.Add(c)
		}
		albedo = sum.Multiply(1 / float64(len(mesh.Colors)))
	}

	probe := &Scene{}
	mat := probe.AddMaterial(material.NewDiffuse(albedo))
	prims, err := MeshTriangles(mesh.Positions, mesh.Normals, mesh.UVs, mesh.Faces, core.Identity(), mat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(prims) == 0 {
		return nil, fmt.Errorf("ply %q has no triangles", path)
	}
	probe.AddPrimitives(prims...)

	return frameMeshScene("ply:"+filepath.Base(path), probe, cameraOverrides...), nil
}
