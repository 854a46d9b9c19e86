package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/docrag/internal/cli"
	"github.com/hyperjump/docrag/internal/models"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var docID string

	cmd := &cobra.Command{
		Use:   "add <file-or-directory>",
		Short: "Index a file, or every supported file under a directory",
		Long: `Index a file, or every supported file under a directory.

Supported types are .pdf, .txt and .md. Hidden directories are skipped.
Files in a directory get generated document ids.

Examples:
  docrag add handbook.pdf
  docrag add --id hr-handbook handbook.pdf
  docrag add ./policies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat path: %w", err)
			}
			var results []*models.AddResult
			if info.IsDir() {
				if docID != "" {
					return fmt.Errorf("--id cannot be used with a directory")
				}
				results, err = components.Engine.IngestDirectory(ctx, components.Extractor, path)
			} else {
				var res *models.AddResult
				res, err = components.Engine.IngestFile(ctx, components.Extractor, path, docID)
				if res != nil {
					results = append(results, res)
				}
			}
			if werr := writeAddResults(cmd, results, format); werr != nil {
				return werr
			}
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docID, "id", "", "document id (generated when empty)")
	return cmd
}

func writeAddResults(cmd *cobra.Command, results []*models.AddResult, format cli.OutputFormat) error {
	out := cmd.OutOrStdout()
	if format == cli.OutputJSON {
		if results == nil {
			results = []*models.AddResult{}
		}
		return cli.WriteJSON(out, results)
	}
	for _, r := range results {
		fmt.Fprintf(out, "Document added: %s (%d chunks)\n", r.DocID, r.ChunkCount)
	}
	return nil
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doc_id>",
		Short: "Remove a document and its chunks from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			removed, err := components.Engine.DeleteDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document deleted: %s (%d chunks removed)\n", args[0], removed)
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
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

			return cli.WriteDocuments(cmd.OutOrStdout(), components.Engine.ListDocuments(cmd.Context()), format)
		},
	}
}
