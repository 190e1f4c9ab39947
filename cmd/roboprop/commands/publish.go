package commands

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/art-e-fact/RoboProp/internal/fileserver"
	"github.com/art-e-fact/RoboProp/internal/logger"
	"github.com/art-e-fact/RoboProp/internal/metadata"
)

func (e *env) fileServer() (*fileserver.Client, error) {
	if err := e.cfg.CheckUpload(); err != nil {
		return nil, err
	}
	return fileserver.New(fileserver.Config{
		URL:     e.cfg.FileServer.URL,
		APIKey:  e.cfg.FileServer.APIKey,
		Timeout: e.cfg.FileServer.Timeout,
	}, logger.Log)
}

// publication is one model directory to put on the file server.
type publication struct {
	Key      string
	Name     string
	Dir      string
	Formats  []string
	Metadata metadata.Metadata
}

// publish uploads the directory and records it in the asset index. Local
// files are left alone whatever happens.
func publish(ctx context.Context, out io.Writer, client *fileserver.Client, p publication) error {
	files, err := client.UploadBundle(ctx, p.Key, p.Dir)
	if err != nil {
		return err
	}
	flat, err := p.Metadata.Flat()
	if err != nil {
		return fmt.Errorf("flattening metadata: %w", err)
	}
	err = client.UpdateIndex(ctx, fileserver.Entry{
		Key:      p.Key,
		Name:     p.Name,
		Formats:  p.Formats,
		Metadata: flat,
	})
	if err != nil {
		return fmt.Errorf("updating index: %w", err)
	}
	logger.Info("published", zap.String("key", p.Key), zap.Int("files", len(files)))
	fmt.Fprintf(out, "Uploaded %s (%d files)\n", p.Key, len(files))
	return nil
}
