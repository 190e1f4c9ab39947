package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/art-e-fact/RoboProp/internal/config"
	"github.com/art-e-fact/RoboProp/internal/metadata"
	"github.com/art-e-fact/RoboProp/internal/pipeline"
)

// build <roboprop.yaml>...: export the models described by descriptor files.
func buildCmd(e *env) *cobra.Command {
	var (
		flags exportFlags
		jobs  int
	)
	cmd := &cobra.Command{
		Use:   "build <roboprop.yaml>...",
		Short: "Export every model described by roboprop.yaml files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := metadata.FromAssignments(flags.meta)
			if err != nil {
				return err
			}

			// Every descriptor is validated before anything is exported.
			models := make([]*config.Model, len(args))
			metas := make([]metadata.Metadata, len(args))
			for i, path := range args {
				m, err := config.LoadModel(path)
				if err != nil {
					return err
				}
				meta, err := metadata.Decode(metadata.Merge(m.Metadata, overrides))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				models[i], metas[i] = m, meta
			}
			client, err := flags.uploader(e)
			if err != nil {
				return err
			}
			p, err := flags.pipeline(e)
			if err != nil {
				return err
			}

			reqs := make([]pipeline.Request, len(models))
			for i, m := range models {
				reqs[i] = pipeline.Request{
					Name:     m.Name(),
					Source:   m.BlendFile,
					OutDir:   filepath.Join(flags.outRoot(e), filepath.FromSlash(m.Key)),
					Metadata: metas[i],
				}
			}
			if jobs == 0 {
				jobs = e.cfg.Export.Jobs
			}
			results, err := p.RunBatch(cmd.Context(), reqs, jobs)
			for _, res := range results {
				if res != nil && len(res.Targets) == len(p.Targets()) {
					printResult(cmd.OutOrStdout(), res)
				}
			}
			if err != nil {
				return err
			}

			if client == nil {
				return nil
			}
			for i, m := range models {
				err := publish(cmd.Context(), cmd.OutOrStdout(), client, publication{
					Key:      m.Key,
					Name:     m.Name(),
					Dir:      results[i].Dir,
					Formats:  results[i].Formats(),
					Metadata: metas[i],
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "models exported at once (default export.jobs)")
	return cmd
}
