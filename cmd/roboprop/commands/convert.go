package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/art-e-fact/RoboProp/internal/fileserver"
	"github.com/art-e-fact/RoboProp/internal/metadata"
	"github.com/art-e-fact/RoboProp/internal/pipeline"
	"github.com/art-e-fact/RoboProp/pkg/modelname"
)

// exportFlags are shared by convert and build.
type exportFlags struct {
	out       string
	upload    bool
	targets   []string
	meta      []string
	noVerify  bool
	demoWorld bool
}

func (f *exportFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output root (default export.out_dir)")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "upload the result to the file server")
	cmd.Flags().StringArrayVarP(&f.targets, "target", "t", nil, "variant/format to export, repeatable (default export.targets)")
	cmd.Flags().StringArrayVar(&f.meta, "meta", nil, "metadata as dot.path=value, repeatable")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "skip inspecting the written files")
	cmd.Flags().BoolVar(&f.demoWorld, "demo-world", false, "also write demo.sdf placing the model in a world")
}

// pipeline builds the pipeline for the configured tool and the flags.
func (f *exportFlags) pipeline(e *env) (*pipeline.Pipeline, error) {
	specs := f.targets
	if len(specs) == 0 {
		specs = e.cfg.Export.Targets
	}
	targets, err := pipeline.ParseTargets(specs)
	if err != nil {
		return nil, err
	}
	return pipeline.New(e.newTool(e.cfg), e.cfg.Export.Collision, pipeline.Options{
		Targets:   targets,
		Verify:    e.cfg.Export.Verify && !f.noVerify,
		DemoWorld: e.cfg.Export.DemoWorld || f.demoWorld,
	})
}

func (f *exportFlags) outRoot(e *env) string {
	if f.out != "" {
		return f.out
	}
	return e.cfg.Export.OutDir
}

// uploader checks the upload settings before any work is done.
func (f *exportFlags) uploader(e *env) (*fileserver.Client, error) {
	if !f.upload {
		return nil, nil
	}
	return e.fileServer()
}

func printResult(out io.Writer, res *pipeline.Result) {
	fmt.Fprintf(out, "Exported %s to %s\n", res.Name, res.Dir)
	for _, f := range res.Files() {
		if rel, err := filepath.Rel(res.Dir, f); err == nil {
			f = rel
		}
		fmt.Fprintf(out, "  %s\n", filepath.ToSlash(f))
	}
}

// convert <blend_file>: export one scene.
func convertCmd(e *env) *cobra.Command {
	var (
		flags exportFlags
		name  string
	)
	cmd := &cobra.Command{
		Use:   "convert <blend_file>",
		Short: "Export a .blend file into a model directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			if name == "" {
				var err error
				if name, err = modelname.FromPath(source); err != nil {
					return fmt.Errorf("deriving model name from %s: %w (use --name)", source, err)
				}
			}
			tree, err := metadata.FromAssignments(flags.meta)
			if err != nil {
				return err
			}
			meta, err := metadata.Decode(tree)
			if err != nil {
				return err
			}
			client, err := flags.uploader(e)
			if err != nil {
				return err
			}
			p, err := flags.pipeline(e)
			if err != nil {
				return err
			}

			res, err := p.Run(cmd.Context(), pipeline.Request{
				Name:     name,
				Source:   source,
				OutDir:   filepath.Join(flags.outRoot(e), name),
				Metadata: meta,
			})
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)

			if client == nil {
				return nil
			}
			return publish(cmd.Context(), cmd.OutOrStdout(), client, publication{
				Key:      name,
				Name:     name,
				Dir:      res.Dir,
				Formats:  res.Formats(),
				Metadata: meta,
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "model name (default derived from the file name)")
	flags.bind(cmd)
	return cmd
}
