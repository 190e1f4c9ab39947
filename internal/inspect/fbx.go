package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

var fbxBinaryMagic = []byte("Kaydara FBX Binary")

// inspectFBX only recognizes the container; FBX geometry is not decoded.
func inspectFBX(path string, mesh *Mesh) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, 64)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("reading header: %w", err)
	}
	head = head[:n]
	if !bytes.HasPrefix(head, fbxBinaryMagic) && !bytes.HasPrefix(bytes.TrimSpace(head), []byte("; FBX")) {
		return errors.New("not an FBX file")
	}
	mesh.Meshes = 1
	return nil
}
