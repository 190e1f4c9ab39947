package inspect

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	rmath "github.com/art-e-fact/RoboProp/pkg/math"
)

// inspectOBJ scans vertex positions and checks that referenced material
// libraries exist. Every "o" or "g" statement counts as a mesh.
func inspectOBJ(path string, mesh *Mesh) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var vertices, objects int
	var missing []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return fmt.Errorf("line %q: short vertex", sc.Text())
			}
			var c [3]float64
			for i := range c {
				if c[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
					return fmt.Errorf("vertex: %w", err)
				}
			}
			mesh.Bounds = mesh.Bounds.Extend(rmath.Vec3From(c[:]))
			vertices++
		case "o", "g":
			objects++
		case "mtllib":
			lib := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "mtllib"))
			if _, err := os.Stat(filepath.Join(filepath.Dir(path), lib)); err != nil {
				missing = append(missing, lib)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if vertices == 0 {
		return errors.New("no vertices")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing material libraries %v", missing)
	}
	mesh.Meshes = max(objects, 1)
	return nil
}
