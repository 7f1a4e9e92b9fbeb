package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
)

var errMalformedOBJ = errors.New("malformed OBJ")

// objFaceVertex is one corner of an OBJ face with resolved zero-based indices.
// normal is -1 when the corner carries no normal reference.
type objFaceVertex struct {
	position int
	normal   int
}

// objParserImpl is the implementation of the objParser interface.
type objParserImpl struct {
	name      string
	positions [][3]float32
	normals   [][3]float32
	indices   [][3]uint32

	// normalsMatch stays true while every face corner references the normal
	// with the same index as its position.
	normalsMatch bool
}

// objParser reads Wavefront OBJ geometry. Only v, vn, f and o records are
// interpreted; texture coordinates and material libraries are skipped.
type objParser interface {
	// Parse consumes an OBJ stream.
	//
	// Parameters:
	//   - r: the OBJ text
	//
	// Returns:
	//   - error: wraps errMalformedOBJ with the offending line number
	Parse(r io.Reader) error

	// Mesh returns the parsed geometry. Faces with more than three corners are
	// fan triangulated. Normals are kept only when the file's normal indices
	// mirror its position indices, otherwise they are left for ComputeNormals.
	//
	// Parameters:
	//   - fallbackName: used when the file has no o record
	//
	// Returns:
	//   - *mesh.TriangleMesh: the triangle mesh
	Mesh(fallbackName string) *mesh.TriangleMesh
}

var _ objParser = &objParserImpl{}

func newOBJParser() objParser {
	return &objParserImpl{normalsMatch: true}
}

func (p *objParserImpl) Parse(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v [3]float32
			v, err = parseOBJVec3(fields[1:])
			p.positions = append(p.positions, v)
		case "vn":
			var v [3]float32
			v, err = parseOBJVec3(fields[1:])
			p.normals = append(p.normals, v)
		case "f":
			err = p.parseFace(fields[1:])
		case "o":
			if p.name == "" && len(fields) > 1 {
				p.name = strings.Join(fields[1:], " ")
			}
		}
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", errMalformedOBJ, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read OBJ: %w", err)
	}
	return nil
}

func (p *objParserImpl) parseFace(corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("face has %d vertices, need at least 3", len(corners))
	}

	face := make([]objFaceVertex, len(corners))
	for i, c := range corners {
		fv, err := p.parseCorner(c)
		if err != nil {
			return err
		}
		if fv.normal != fv.position {
			p.normalsMatch = false
		}
		face[i] = fv
	}

	for i := 1; i+1 < len(face); i++ {
		p.indices = append(p.indices, [3]uint32{
			uint32(face[0].position),
			uint32(face[i].position),
			uint32(face[i+1].position),
		})
	}
	return nil
}

// parseCorner accepts v, v/vt, v//vn and v/vt/vn.
func (p *objParserImpl) parseCorner(c string) (objFaceVertex, error) {
	parts := strings.Split(c, "/")
	if len(parts) > 3 {
		return objFaceVertex{}, fmt.Errorf("bad face vertex %q", c)
	}

	pos, err := resolveOBJIndex(parts[0], len(p.positions))
	if err != nil {
		return objFaceVertex{}, fmt.Errorf("position of %q: %w", c, err)
	}

	fv := objFaceVertex{position: pos, normal: -1}
	if len(parts) == 3 && parts[2] != "" {
		fv.normal, err = resolveOBJIndex(parts[2], len(p.normals))
		if err != nil {
			return objFaceVertex{}, fmt.Errorf("normal of %q: %w", c, err)
		}
	}
	return fv, nil
}

// resolveOBJIndex converts a one-based or negative (relative to the end)
// OBJ index into a zero-based index into a list of length n.
func resolveOBJIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}

	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	default:
		return 0, fmt.Errorf("index %d out of range for %d elements", i, n)
	}
}

func parseOBJVec3(fields []string) ([3]float32, error) {
	var v [3]float32
	if len(fields) < 3 {
		return v, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

func (p *objParserImpl) Mesh(fallbackName string) *mesh.TriangleMesh {
	name := p.name
	if name == "" {
		name = fallbackName
	}

	tm := &mesh.TriangleMesh{
		Name:      name,
		Positions: p.positions,
		Indices:   p.indices,
	}
	if p.normalsMatch && len(p.indices) > 0 && len(p.normals) == len(p.positions) {
		tm.Normals = p.normals
	}
	return tm
}
