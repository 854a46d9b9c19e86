package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/docrag/internal/cli"
	"github.com/hyperjump/docrag/internal/config"
	"github.com/hyperjump/docrag/internal/indexer"
	"github.com/hyperjump/docrag/internal/storage"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index counts and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			var status *cli.Status
			if remote.server != "" {
				status = &cli.Status{}
				if err := newAPIClient(remote.server, remote.token).get(cmd.Context(), "/status", status); err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
			} else {
				cfg, logger, err := opts.setup()
				if err != nil {
					return err
				}
				defer logger.Sync()
				components, err := initializeComponents(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer components.Close()
				status = localStatus(cfg, components.Engine)
			}
			return cli.WriteStatus(cmd.OutOrStdout(), status, format)
		},
	}
	remote.register(cmd)
	return cmd
}

func localStatus(cfg *config.Config, engine *indexer.Engine) *cli.Status {
	stats := engine.Stats()
	st := cfg.Storage
	status := &cli.Status{
		Documents:       stats.Documents,
		Chunks:          stats.Chunks,
		VectorIndexSize: stats.VectorSize,
		Dirty:           engine.Dirty(),
		Config: map[string]interface{}{
			"embedding_model":      cfg.Embedding.Model,
			"embedding_dimensions": stats.Dimensions,
			"chunk_size":           cfg.Chunking.Size,
			"chunk_overlap":        cfg.Chunking.Overlap,
			"metadata_backend":     st.MetadataBackend,
			"index_path":           st.IndexPath,
			"metadata_path":        st.MetadataLocation(),
		},
	}
	if usage, err := storage.MeasureDisk(st.IndexPath, st.MetadataLocation(), st.UploadDir); err == nil {
		total := usage.Total()
		status.DiskUsageBytes = &total
		status.DiskUsage = &usage
	}
	return status
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the docrag version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docrag version %s\n", version)
		},
	}
}
