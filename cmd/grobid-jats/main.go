// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the grobid-jats CLI and server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/grobid-jats/internal/config"
	"github.com/pdiddy/grobid-jats/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the grobid-jats CLI.
var rootCmd = &cobra.Command{
	Use:   "grobid-jats",
	Short: "Convert submission PDFs to JATS XML with Grobid",
	Long: `grobid-jats sends submission PDFs to a Grobid service and stores the
returned JATS XML as a new file of the same submission.

The serve command exposes the process action, the per-context Grobid host
setting and the file action lookup over HTTP. The other commands drive the
same operations from the shell against the local store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./grobid-jats.yaml or ~/.config/grobid-jats/grobid-jats.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding grobid.db and stored files (overrides store.data_dir)")
	_ = viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("grobid-jats")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "grobid-jats"))
		}
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
