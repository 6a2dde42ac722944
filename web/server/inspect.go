package server

import (
	"fmt"
	"net/http"

	"github.com/df07/go-wavefront-pathtracer/pkg/core"
	"github.com/df07/go-wavefront-pathtracer/pkg/geometry"
	"github.com/df07/go-wavefront-pathtracer/pkg/material"
	"github.com/df07/go-wavefront-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

// handleInspect reports what the centre ray of a pixel hits
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	query := r.URL.Query()
	x, err := parseIntParam(query, "x", 0, 0, req.Width-1)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	y, err := parseIntParam(query, "y", 0, 0, req.Height-1)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sc, _, err := scene.Load(req.Scene, scene.LoadOptions{
		Camera:  scene.CameraConfig{Width: req.Width, Height: req.Height},
		Texture: s.config.TexturePath,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(sc, x, y))
}

// inspectPixel casts the unjittered ray through pixel (x, y)
func inspectPixel(sc *scene.Scene, x, y int) InspectResponse {
	ray := core.NewRay(sc.Camera.Position, sc.Camera.Direction(float64(x), float64(y)))
	hit, index := geometry.IntersectBVH(sc.Nodes, sc.Primitives, ray)
	if index == geometry.NoHit {
		return InspectResponse{Hit: false, Properties: map[string]interface{}{}}
	}

	prim := &sc.Primitives[index]
	mat := sc.Materials[prim.MaterialID]
	materialType, properties := extractMaterialInfo(mat)

	bounds := prim.Bounds()
	properties["primitiveIndex"] = index
	properties["materialId"] = prim.MaterialID
	properties["boundsMin"] = vecArray(bounds.Min)
	properties["boundsMax"] = vecArray(bounds.Max)
	properties["uv"] = [2]float64{hit.UV.X, hit.UV.Y}

	return InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: prim.Kind.String(),
		Point:        vecArray(hit.Point),
		Normal:       vecArray(hit.Normal),
		Distance:     hit.T,
		FrontFace:    hit.FrontFace,
		Properties:   properties,
	}
}

// extractMaterialInfo describes a material record for the client
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := map[string]interface{}{
		"albedo": vecArray(mat.Color),
		"color":  hexColor(mat.Color),
	}
	if mat.Texture.Present() {
		properties["texture"] = fmt.Sprintf("%dx%d", mat.Texture.Width, mat.Texture.Height)
	}
	if mat.NormalMap.Present() {
		properties["normalMap"] = fmt.Sprintf("%dx%d", mat.NormalMap.Width, mat.NormalMap.Height)
	}
	if mat.LoadFailed() {
		properties["loadError"] = true
	}

	if mat.IsEmissive() {
		properties["emittance"] = mat.Emittance
		return "emissive", properties
	}
	switch mat.Kind {
	case material.Specular:
		properties["fuzz"] = mat.Fuzz
	case material.Dielectric:
		properties["refractiveIndex"] = mat.IOR
		properties["color"] = "#ffffff" // Clear glass
	}
	return mat.Kind.String(), properties
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}
