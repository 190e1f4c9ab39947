package inspect

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"

	rmath "github.com/art-e-fact/RoboProp/pkg/math"
)

// inspectGLTF decodes a .glb or .gltf file. Opening also loads external
// buffers, so a missing .bin fails here; images are only checked for
// existence.
func inspectGLTF(path string, mesh *Mesh) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	if len(doc.Meshes) == 0 {
		return errors.New("no meshes")
	}
	mesh.Meshes = len(doc.Meshes)

	var missing []string
	for _, img := range doc.Images {
		if img.URI == "" || img.IsEmbeddedResource() {
			continue
		}
		if !externalExists(path, img.URI) {
			missing = append(missing, img.URI)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing images %v", missing)
	}

	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			idx, ok := prim.Attributes[gltf.POSITION]
			if !ok || int(idx) >= len(doc.Accessors) {
				continue
			}
			acc := doc.Accessors[idx]
			if len(acc.Min) < 3 || len(acc.Max) < 3 {
				continue
			}
			mesh.Bounds = mesh.Bounds.
				Extend(rmath.Vec3From(acc.Min)).
				Extend(rmath.Vec3From(acc.Max))
		}
	}
	return nil
}

func externalExists(docPath, uri string) bool {
	name, err := url.PathUnescape(uri)
	if err != nil {
		name = uri
	}
	_, err = os.Stat(filepath.Join(filepath.Dir(docPath), filepath.FromSlash(name)))
	return err == nil
}
