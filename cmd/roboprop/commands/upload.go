package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/art-e-fact/RoboProp/internal/inspect"
	"github.com/art-e-fact/RoboProp/internal/metadata"
	"github.com/art-e-fact/RoboProp/pkg/sdf"
)

// upload <model_dir>: publish an already exported model.
func uploadCmd(e *env) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "upload <model_dir>",
		Short: "Publish a model directory to the file server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := e.fileServer()
			if err != nil {
				return err
			}
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			report, err := inspect.Dir(dir)
			if err != nil {
				return err
			}
			if err := report.Err(); err != nil {
				return err
			}
			m, err := sdf.ReadManifest(report.Manifests[0])
			if err != nil {
				return err
			}
			if key == "" {
				key = filepath.Base(dir)
			}
			return publish(cmd.Context(), cmd.OutOrStdout(), client, publication{
				Key:      key,
				Name:     m.Name,
				Dir:      dir,
				Formats:  reportFormats(report),
				Metadata: manifestMetadata(m),
			})
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "folder on the file server (default the directory name)")
	return cmd
}

func reportFormats(r *inspect.Report) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range r.Meshes {
		if f := string(m.Format); !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// manifestMetadata recovers the indexable metadata of an exported model.
func manifestMetadata(m *sdf.Manifest) metadata.Metadata {
	meta := metadata.Metadata{
		Version:           m.Version,
		Description:       m.Description,
		DescriptionFormat: metadata.FormatText,
	}
	for _, a := range m.Authors {
		meta.Authors = append(meta.Authors, metadata.Author{Name: a.Name, Email: a.Email})
	}
	return meta
}

// list: print the published models.
func listCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models published on the file server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := e.fileServer()
			if err != nil {
				return err
			}
			models, err := client.Models(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}
