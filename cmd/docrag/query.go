package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperjump/docrag/internal/cli"
	"github.com/hyperjump/docrag/internal/models"
)

// remoteFlags selects a running server instead of the local index.
type remoteFlags struct {
	server string
	token  string
}

func (r *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.server, "server", "", "server URL (empty = use the local index directly)")
	cmd.Flags().StringVar(&r.token, "token", "", "auth token for --server (default: $X_AUTH_TOKEN)")
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var topK int
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Return the chunks closest to a query",
		Long: `Return the chunks closest to a query, nearest first.

The query is all remaining arguments joined by spaces.

Examples:
  docrag search annual leave policy
  docrag search --top-k 5 "remote work"
  docrag search --server http://localhost:8000 -o json vpn setup`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			query := joinArgs(args)
			if query == "" {
				return fmt.Errorf("query is empty")
			}

			var response *models.SearchResponse
			if remote.server != "" {
				values := url.Values{"query": {query}}
				if topK > 0 {
					values.Set("top_k", strconv.Itoa(topK))
				}
				response = &models.SearchResponse{}
				if err := newAPIClient(remote.server, remote.token).postForm(cmd.Context(), "/rag/query", values, response); err != nil {
					return fmt.Errorf("search failed: %w", err)
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
				response, err = components.Engine.Search(cmd.Context(), query, topK)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default: search.default_top_k)")
	remote.register(cmd)
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Long: `Answer a question from the indexed documents.

The closest chunks are passed to the chat model, which answers only from
them and cites the source files.

Examples:
  docrag ask how many days of annual leave do I get
  docrag ask --server http://localhost:8000 "who approves expenses?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			question := joinArgs(args)
			if question == "" {
				return fmt.Errorf("question is empty")
			}

			var ans *models.Answer
			if remote.server != "" {
				ans = &models.Answer{}
				if err := newAPIClient(remote.server, remote.token).postForm(cmd.Context(), "/bot/ask", url.Values{"query": {question}}, ans); err != nil {
					return fmt.Errorf("ask failed: %w", err)
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
				tool, err := components.AnswerTool(cmd.Context())
				if err != nil {
					return err
				}
				ans, err = tool.Answer(cmd.Context(), question)
				if err != nil {
					return fmt.Errorf("ask failed: %w", err)
				}
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), ans, format)
		},
	}
	remote.register(cmd)
	return cmd
}
