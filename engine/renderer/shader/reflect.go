package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structRegex     = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	attributeRegex  = regexp.MustCompile(`@\w+(?:\([^)]*\))?`)
	locationRegex   = regexp.MustCompile(`@location\((\d+)\)`)
	workgroupRegex  = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)
	fnNameRegex     = regexp.MustCompile(`^\s*fn\s+(\w+)\s*\(`)
	bindingDeclRegx = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	shorthandRegex  = regexp.MustCompile(`^(vec[234]|mat[234]x[234])([fiuh])$`)
)

var stageAttributes = map[ShaderType]string{
	ShaderTypeVertex:   "@vertex",
	ShaderTypeFragment: "@fragment",
	ShaderTypeCompute:  "@compute",
}

// wgslField is one member of a struct or one parameter of a function.
type wgslField struct {
	name     string
	typeName string
	location int
	builtin  bool
}

// wgslStruct is a struct block found in the source.
type wgslStruct struct {
	name   string
	fields []wgslField
}

// reflection is the comment-free source plus the structs declared in it.
type reflection struct {
	source  string
	structs []wgslStruct
	byName  map[string]wgslStruct
	layouts map[string]typeLayout
}

func newReflection(source string) *reflection {
	r := &reflection{
		source: stripComments(source),
		byName: make(map[string]wgslStruct),
	}
	for _, m := range structRegex.FindAllStringSubmatch(r.source, -1) {
		st := wgslStruct{name: m[1], fields: parseFields(m[2])}
		r.structs = append(r.structs, st)
		r.byName[st.name] = st
	}
	r.layouts = structLayouts(r.structs)
	return r
}

// parseEntryPoint returns the function name following the stage attribute, or "".
func parseEntryPoint(source string, stage ShaderType) string {
	return newReflection(source).entryPoint(stage)
}

// parseVertexLayouts returns one buffer layout per struct parameter of the vertex entry point.
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	return newReflection(source).vertexLayouts()
}

// parseWorkgroupSize returns the first @workgroup_size, padding omitted dimensions with 1.
func parseWorkgroupSize(source string) [3]uint32 {
	return newReflection(source).workgroupSize()
}

// parseBindGroupLayouts classifies every @group/@binding declaration. It returns the
// descriptors keyed by group, the variable names and the byte sizes of buffer bindings.
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, map[int]map[int]uint64) {
	return newReflection(source).bindings(visibility)
}

func (r *reflection) entryPoint(stage ShaderType) string {
	attr, ok := stageAttributes[stage]
	if !ok {
		return ""
	}
	_, name, _ := r.function(attr)
	return name
}

// function finds the first function carrying attr and returns the source offset of
// its parameter list, its name and whether it was found.
func (r *reflection) function(attr string) (int, string, bool) {
	src := r.source
	for i := 0; ; {
		idx := strings.Index(src[i:], attr)
		if idx < 0 {
			return 0, "", false
		}
		i += idx + len(attr)
		// @vertex must not match @vertex_index-like identifiers
		if i < len(src) && (isIdentByte(src[i])) {
			continue
		}
		rest := attributeRegex.ReplaceAllStringFunc(src[i:min(len(src), i+256)], func(s string) string {
			return strings.Repeat(" ", len(s))
		})
		if m := fnNameRegex.FindStringSubmatchIndex(rest); m != nil {
			return i + m[1], rest[m[2]:m[3]], true
		}
	}
}

func (r *reflection) vertexLayouts() []wgpu.VertexBufferLayout {
	start, _, ok := r.function(stageAttributes[ShaderTypeVertex])
	if !ok {
		return nil
	}
	end := matchingParen(r.source, start-1)
	if end < 0 {
		return nil
	}

	var layouts []wgpu.VertexBufferLayout
	for _, param := range parseFields(r.source[start:end]) {
		st, ok := r.byName[param.typeName]
		if !ok {
			continue
		}
		if layout, ok := vertexBufferLayout(st); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

func (r *reflection) workgroupSize() [3]uint32 {
	size := [3]uint32{1, 1, 1}
	m := workgroupRegex.FindStringSubmatch(r.source)
	if m == nil {
		return size
	}
	for i := range size {
		if m[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(m[i+1], 10, 32); err == nil {
			size[i] = uint32(v)
		}
	}
	return size
}

func (r *reflection) bindings(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, map[int]map[int]uint64) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	sizes := make(map[int]map[int]uint64)

	for _, m := range bindingDeclRegx.FindAllStringSubmatch(r.source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := normalizeType(m[5])

		entry := classifyBinding(uint32(binding), visibility, strings.TrimSpace(m[3]), typeName)
		entries[group] = append(entries[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
			sizes[group] = make(map[int]uint64)
		}
		names[group][binding] = m[4]
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := resolveLayout(typeName, r.layouts); ok {
				sizes[group][binding] = l.size
			}
		}
	}

	descs := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, es := range entries {
		sort.Slice(es, func(i, j int) bool { return es[i].Binding < es[j].Binding })
		descs[g] = wgpu.BindGroupLayoutDescriptor{Entries: es}
	}
	return descs, names, sizes
}

// parseFields splits a struct body or parameter list into fields.
func parseFields(body string) []wgslField {
	var fields []wgslField
	for _, part := range splitTopLevel(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := wgslField{location: -1}
		if m := locationRegex.FindStringSubmatch(part); m != nil {
			f.location, _ = strconv.Atoi(m[1])
		}
		f.builtin = strings.Contains(part, "@builtin")

		bare := strings.TrimSpace(attributeRegex.ReplaceAllString(part, ""))
		name, typeName, ok := strings.Cut(bare, ":")
		if !ok {
			continue
		}
		f.name = strings.TrimSpace(name)
		f.typeName = normalizeType(typeName)
		fields = append(fields, f)
	}
	return fields
}

// vertexBufferLayout packs the located fields of st tightly in declaration order.
func vertexBufferLayout(st wgslStruct) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	for _, f := range st.fields {
		if f.builtin || f.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		format, size, ok := vertexFormat(f.typeName)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(f.location),
		})
		layout.ArrayStride += size
	}
	return layout, len(layout.Attributes) > 0
}

// normalizeType removes whitespace and expands shorthand aliases such as vec3f
// and mat4x4f into their templated spelling.
func normalizeType(t string) string {
	t = strings.Join(strings.Fields(t), "")
	if m := shorthandRegex.FindStringSubmatch(t); m != nil {
		scalar := map[string]string{"f": "f32", "i": "i32", "u": "u32", "h": "f16"}[m[2]]
		return m[1] + "<" + scalar + ">"
	}
	return t
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32".
func splitTypeParams(t string) (string, string) {
	base, params, ok := strings.Cut(t, "<")
	if !ok {
		return t, ""
	}
	return base, strings.TrimSuffix(params, ">")
}

// splitTopLevel splits at commas outside of <> and ().
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// matchingParen returns the index of the ')' closing the '(' at open, or -1.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// stripComments removes line comments and nested block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch source[i : i+2] {
			case "/*":
				depth++
				i++
				continue
			case "*/":
				if depth > 0 {
					depth--
					i++
					continue
				}
			case "//":
				if depth == 0 {
					for i < len(source) && source[i] != '\n' {
						i++
					}
					if i < len(source) {
						sb.WriteByte('\n')
					}
					continue
				}
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
