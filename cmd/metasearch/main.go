// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the metasearch CLI.
// It drives a federated search broker from the terminal and can serve the
// same session as a local JSON API.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/metasearch/internal/logger"
	"github.com/pdiddy/metasearch/internal/secrets"
	"github.com/pdiddy/metasearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the configuration read by initConfig, with defaults applied.
	cfg types.Config

	// loadedSecrets holds credentials loaded from the secrets directory at startup.
	loadedSecrets secrets.Secrets

	// log is the process logger built in PersistentPreRunE.
	log = zap.NewNop()
)

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the metasearch CLI.
var rootCmd = &cobra.Command{
	Use:   "metasearch",
	Short: "Federated library search through a metasearch broker",
	Long: `metasearch sends one query to a metasearch broker, which fans it out to
many library catalogues and merges the answers. The CLI follows the search
until every target has answered, then filters, sorts and pages the merged
records locally.

Records can be copied to a persistent clipboard and exported as JSON, YAML
or CSL. The serve subcommand exposes the same session as a JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
		if err != nil {
			return err
		}
		log = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(logger.WithContext(cmd.Context(), log), dir)
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
			log.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		cfg.Storage.Password = secretDefault(secrets.RedisPassword, cfg.Storage.Password)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./metasearch.yaml or ~/.config/metasearch/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory holding one file per secret")
	rootCmd.PersistentFlags().String("broker", "", "broker URL, e.g. http://localhost:9004/search.pz2")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("broker.url", rootCmd.PersistentFlags().Lookup("broker"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("metasearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "metasearch"))
		}
	}

	viper.SetEnvPrefix("METASEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	cfg = loadConfig(viper.GetViper())
}

// loadConfig decodes v into a Config and applies defaults. Decoding errors
// are reported and the defaults used instead.
func loadConfig(v *viper.Viper) types.Config {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		fmt.Fprintln(os.Stderr, "Ignoring invalid config:", err)
		c = types.Config{}
	}
	c.ApplyDefaults()
	return c
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
