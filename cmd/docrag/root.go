package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/cli"
	"github.com/hyperjump/docrag/internal/config"
	"github.com/hyperjump/docrag/pkg/utils"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	envFile    string
	debug      bool
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "docrag",
		Short: "docrag indexes documents and answers questions from them",
		Long: `docrag splits uploaded documents into overlapping word windows, embeds
them, and answers questions by retrieving the closest chunks.

Run 'docrag serve' for the HTTP API, or use the other commands to work on
the local index directly. Do not mutate the index from the CLI while a
server is running against the same files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		newServeCmd(opts),
		newAddCmd(opts),
		newDeleteCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newAskCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// setup loads the config and builds the logger.
func (o *rootOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || o.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debug))
	return cfg, logger, nil
}

func (o *rootOptions) format() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(o.output)
}
