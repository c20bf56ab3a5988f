package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/docfinder/internal/config"
	logpkg "github.com/local/docfinder/internal/logger"
)

// app carries what every subcommand needs once the environment is loaded.
type app struct {
	envFile string
	cfg     cfgpkg.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "docfinder",
		Short:        "Find a person's administrative documents in scanned uploads",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logpkg.Close()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(a), newStatusCmd(a), newVersionCmd())
	return root
}

func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	a.cfg = cfgpkg.FromEnv()

	return logpkg.Init(logpkg.Options{
		Service:      "docfinder",
		Level:        a.cfg.Logging.Level,
		Pretty:       a.cfg.Logging.Pretty,
		File:         a.cfg.Logging.File,
		MaxSizeMB:    a.cfg.Logging.MaxSizeMB,
		MaxBackups:   a.cfg.Logging.MaxBackups,
		MaxAgeDays:   a.cfg.Logging.MaxAgeDays,
		Compress:     a.cfg.Logging.Compress,
		SendToAxiom:  a.cfg.Axiom.Send && a.cfg.Axiom.APIKey != "",
		AxiomAPIKey:  a.cfg.Axiom.APIKey,
		AxiomOrgID:   a.cfg.Axiom.OrgID,
		AxiomDataset: a.cfg.Axiom.Dataset,
		AxiomFlush:   a.cfg.Axiom.FlushInterval,
	})
}
