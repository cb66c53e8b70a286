package models

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tinunadno/render-engine-family/internal/logging"
	"github.com/tinunadno/render-engine-family/pkg/math3d"
)

// ErrNoFaces is returned when an OBJ file defines no triangles.
var ErrNoFaces = errors.New("obj: no faces")

// LoadOBJ reads a Wavefront OBJ file. Material libraries and texture maps are
// resolved relative to the OBJ's directory.
func LoadOBJ[T math3d.Float](name string) (*Model[T], error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	m, err := ReadOBJ[T](f, os.DirFS(filepath.Dir(name)))
	if err != nil {
		return nil, err
	}
	m.Name = filepath.Base(name)
	return m, nil
}

// ReadOBJ parses OBJ data from r. Polygons are fan-triangulated. Only the
// first material referenced by usemtl is applied. fsys resolves mtllib and
// texture paths; it may be nil to skip materials.
func ReadOBJ[T math3d.Float](r io.Reader, fsys fs.FS) (*Model[T], error) {
	m := NewModel[T]("")
	g := &m.Geometry

	var mtlLibs []string
	var useMtl string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v math3d.Vec3[T]
			v, err = parseVec3[T](fields[1:])
			g.Vertices = append(g.Vertices, v)
		case "vt":
			var uv math3d.Vec2[T]
			uv, err = parseVec2[T](fields[1:])
			g.UVs = append(g.UVs, uv)
		case "vn":
			var n math3d.Vec3[T]
			n, err = parseVec3[T](fields[1:])
			g.Normals = append(g.Normals, n)
		case "f":
			err = parseFace(g, fields[1:])
		case "mtllib":
			mtlLibs = append(mtlLibs, strings.Join(fields[1:], " "))
		case "usemtl":
			if useMtl == "" && len(fields) > 1 {
				useMtl = strings.Join(fields[1:], " ")
			}
		}
		if err != nil {
			return nil, fmt.Errorf("parse obj line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	if len(g.Faces) == 0 {
		return nil, ErrNoFaces
	}

	if fsys != nil && len(mtlLibs) > 0 {
		mats := make(map[string]Material[T])
		textures := make(map[string]*Texture[T])
		for _, lib := range mtlLibs {
			if err := readMTL(fsys, lib, mats, textures); err != nil {
				logging.Logger().Warn("skipping material library", "mtllib", lib, "err", err)
			}
		}
		if mat, ok := mats[useMtl]; ok {
			m.Material = mat
		} else if useMtl != "" {
			logging.Logger().Warn("material not found", "usemtl", useMtl)
		}
	}

	return m, nil
}

func parseFloats[T math3d.Float](fields []string, n int) ([3]T, error) {
	var out [3]T
	if len(fields) < n {
		return out, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, err
		}
		out[i] = T(f)
	}
	return out, nil
}

func parseVec3[T math3d.Float](fields []string) (math3d.Vec3[T], error) {
	f, err := parseFloats[T](fields, 3)
	return math3d.Vec3[T]{X: f[0], Y: f[1], Z: f[2]}, err
}

func parseVec2[T math3d.Float](fields []string) (math3d.Vec2[T], error) {
	f, err := parseFloats[T](fields, 2)
	return math3d.Vec2[T]{X: f[0], Y: f[1]}, err
}

// parseFace appends the fan triangulation of one polygon.
func parseFace[T math3d.Float](g *Geometry[T], fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face needs 3 vertices, got %d", len(fields))
	}
	corners := make([]FaceVertex, len(fields))
	for i, field := range fields {
		fv, err := parseFaceVertex(field, len(g.Vertices), len(g.UVs), len(g.Normals))
		if err != nil {
			return err
		}
		corners[i] = fv
	}
	for i := 1; i+1 < len(corners); i++ {
		g.Faces = append(g.Faces, Face{corners[0], corners[i], corners[i+1]})
	}
	return nil
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn" with 1-based or
// negative (relative) indices.
func parseFaceVertex(field string, nv, nuv, nn int) (FaceVertex, error) {
	fv := FaceVertex{V: Absent, UV: Absent, N: Absent}
	parts := strings.Split(field, "/")

	resolve := func(s string, count int) (int, error) {
		if s == "" {
			return Absent, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return Absent, err
		}
		if i < 0 {
			return count + i, nil
		}
		return i - 1, nil
	}

	var err error
	if fv.V, err = resolve(parts[0], nv); err != nil {
		return fv, err
	}
	if fv.V < 0 || fv.V >= nv {
		return fv, fmt.Errorf("vertex index %q out of range", parts[0])
	}
	if len(parts) > 1 {
		if fv.UV, err = resolve(parts[1], nuv); err != nil {
			return fv, err
		}
	}
	if len(parts) > 2 {
		if fv.N, err = resolve(parts[2], nn); err != nil {
			return fv, err
		}
	}
	return fv, nil
}

// readMTL parses a material library into mats. Textures are decoded once per
// path and shared between materials through the textures cache.
func readMTL[T math3d.Float](fsys fs.FS, name string, mats map[string]Material[T], textures map[string]*Texture[T]) error {
	f, err := fsys.Open(filepath.ToSlash(name))
	if err != nil {
		return err
	}
	defer f.Close()

	dir := path.Dir(filepath.ToSlash(name))
	var cur *Material[T]
	var curName string
	flush := func() {
		if cur != nil {
			mats[curName] = *cur
		}
	}

	texture := func(rel string) Sampler[T] {
		p := path.Join(dir, filepath.ToSlash(rel))
		if tex, ok := textures[p]; ok {
			return tex
		}
		tex, err := decodeTexture[T](fsys, p)
		if err != nil {
			logging.Logger().Warn("texture unavailable", "path", p, "err", err)
			return nil
		}
		textures[p] = tex
		return tex
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			flush()
			curName = strings.Join(fields[1:], " ")
			m := DefaultMaterial[T]()
			m.Name = curName
			m.Ambient = 0
			cur = &m
			continue
		}
		if cur == nil {
			continue
		}

		switch fields[0] {
		case "Kd":
			if v, err := parseVec3[T](fields[1:]); err == nil {
				cur.BaseColor = v
			}
		case "Ka":
			if v, err := parseVec3[T](fields[1:]); err == nil {
				cur.Ambient = (v.X + v.Y + v.Z) / 3
			}
		case "Ks":
			if v, err := parseVec3[T](fields[1:]); err == nil {
				cur.Specular = (v.X + v.Y + v.Z) / 3
			}
		case "Ns":
			if v, err := parseFloats[T](fields[1:], 1); err == nil {
				cur.Roughness = RoughnessFromShininess(v[0])
			}
		case "map_Kd":
			cur.DiffuseMap = texture(lastField(fields))
		case "map_Bump", "map_bump", "bump", "norm":
			cur.NormalMap = texture(lastField(fields))
		case "map_Pr":
			cur.RoughnessMap = texture(lastField(fields))
		}
	}
	flush()
	return scanner.Err()
}

// lastField drops option flags such as "-bm 1" that precede the file name.
func lastField(fields []string) string {
	return fields[len(fields)-1]
}

func decodeTexture[T math3d.Float](fsys fs.FS, name string) (*Texture[T], error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return TextureFromImage[T](img), nil
}

// RoughnessFromShininess inverts the Blinn-Phong shininess remap
// shininess = (1-roughness)^4 * 510 + 2.
func RoughnessFromShininess[T math3d.Float](ns T) T {
	s := math3d.Clamp((ns-2)/510, 0, 1)
	return 1 - math3d.Pow(s, 0.25)
}
