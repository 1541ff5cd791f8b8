package main

import (
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/notectl/notectl-go/editor"
	"github.com/notectl/notectl-go/log"
)

// fileConfig is the YAML shape of --config files.
type fileConfig struct {
	Placeholder  string `yaml:"placeholder"`
	ReadOnly     bool   `yaml:"readonly"`
	HistoryDepth int    `yaml:"history_depth"`
	AriaLabel    string `yaml:"aria_label"`
}

type rootOptions struct {
	logCfg     *log.Config
	configPath string
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logCfg: log.NewConfig()}
	cmd := &cobra.Command{
		Use:           "notectl",
		Short:         "Convert and inspect rich-text documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			handler, err := opts.logCfg.NewHandler(os.Stderr)
			if err != nil {
				return err
			}
			opts.logger = slog.New(handler)
			return nil
		},
	}
	opts.logCfg.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "editor config file (YAML)")
	cmd.AddCommand(newConvertCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	return cmd
}

// editorConfig loads the optional YAML config file.
func (o *rootOptions) editorConfig() (editor.Config, error) {
	cfg := editor.Config{}
	if o.configPath == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(o.configPath)
	if err != nil {
		return cfg, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, err
	}
	cfg.Placeholder = fc.Placeholder
	cfg.ReadOnly = fc.ReadOnly
	cfg.HistoryDepth = fc.HistoryDepth
	cfg.AriaLabel = fc.AriaLabel
	return cfg, nil
}
