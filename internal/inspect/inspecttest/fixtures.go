// Package inspecttest writes small but well-formed mesh files for tests that
// need exporter output without running Blender.
package inspecttest

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
)

// Triangle is the geometry every fixture contains, Y-up for glTF and Z-up
// for OBJ, 1 wide and 2 tall.
var Triangle = [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 2, 0}}

// WriteMesh writes a fixture matching the extension of path. OBJ files
// reference a material library, written alongside.
func WriteMesh(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return WriteOBJ(path, true)
	case ".gltf":
		return WriteGLTF(path, nil)
	case ".glb":
		return WriteGLB(path)
	case ".fbx":
		return WriteFBX(path)
	default:
		return fmt.Errorf("inspecttest: no fixture for %s", path)
	}
}

// WriteOBJ writes a one-triangle OBJ in the Z-up frame.
func WriteOBJ(path string, withMaterial bool) error {
	var b strings.Builder
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if withMaterial {
		fmt.Fprintf(&b, "mtllib %s.mtl\n", base)
		mtl := "newmtl Wood\nKd 0.8 0.6 0.4\n"
		if err := os.WriteFile(filepath.Join(filepath.Dir(path), base+".mtl"), []byte(mtl), 0o644); err != nil {
			return err
		}
	}
	b.WriteString("o Triangle\n")
	for _, v := range Triangle {
		// Y-up to Z-up.
		fmt.Fprintf(&b, "v %g %g %g\n", v[0], -v[2], v[1])
	}
	if withMaterial {
		b.WriteString("usemtl Wood\n")
	}
	b.WriteString("f 1 2 3\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteGLTF writes a separate-file glTF: the document, a .bin buffer next to
// it and the listed image URIs (which are not created).
func WriteGLTF(path string, images []string) error {
	bin := positions()
	binName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".bin"
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), binName), bin, 0o644); err != nil {
		return err
	}
	return writeDocument(path, binName, len(bin), images)
}

// WriteGLB writes a binary glTF with the buffer in the BIN chunk.
func WriteGLB(path string) error {
	bin := positions()
	tmp := path + ".tmp.gltf"
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	if err := writeDocument(tmp, uri, len(bin), nil); err != nil {
		return err
	}
	defer os.Remove(tmp)

	doc, err := gltf.Open(tmp)
	if err != nil {
		return err
	}
	doc.Buffers[0].URI = ""
	return gltf.SaveBinary(doc, path)
}

// WriteFBX writes the binary FBX header, which is all inspection checks.
func WriteFBX(path string) error {
	head := append([]byte("Kaydara FBX Binary  \x00\x1a\x00"), 0x4c, 0x1d, 0, 0)
	return os.WriteFile(path, head, 0o644)
}

func positions() []byte {
	var buf bytes.Buffer
	for _, v := range Triangle {
		for _, c := range v {
			_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(c))
		}
	}
	return buf.Bytes()
}

func writeDocument(path, bufferURI string, byteLength int, images []string) error {
	doc := map[string]any{
		"asset":       map[string]any{"version": "2.0", "generator": "inspecttest"},
		"buffers":     []any{map[string]any{"uri": bufferURI, "byteLength": byteLength}},
		"bufferViews": []any{map[string]any{"buffer": 0, "byteLength": byteLength}},
		"accessors": []any{map[string]any{
			"bufferView":    0,
			"componentType": 5126,
			"count":         len(Triangle),
			"type":          "VEC3",
			"min":           []float32{0, 0, 0},
			"max":           []float32{1, 2, 0},
		}},
		"meshes": []any{map[string]any{
			"name":       "Triangle",
			"primitives": []any{map[string]any{"attributes": map[string]any{"POSITION": 0}}},
		}},
		"nodes":  []any{map[string]any{"mesh": 0}},
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"scene":  0,
	}
	if len(images) > 0 {
		var imgs []any
		for _, uri := range images {
			imgs = append(imgs, map[string]any{"uri": uri})
		}
		doc["images"] = imgs
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
