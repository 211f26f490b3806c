// Command dsindex inspects and maintains the files search index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	systemID string
	asUser   string
	output   string
	verbose  bool
)

// env is what every command runs against, built once the flags are parsed.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	store *search.Store
}

var current *env

var rootCmd = &cobra.Command{
	Use:           "dsindex",
	Short:         "Inspect and maintain the DesignSafe files index",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if current != nil {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		mode := "prod"
		if verbose {
			mode = "dev"
		}
		log, err := logger.New(mode)
		if err != nil {
			return err
		}
		backend, err := search.NewBackend(cfg.Elastic, log)
		if err != nil {
			return err
		}
		current = &env{cfg: cfg, log: log, store: search.NewStore(backend, log)}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&systemID, "system", "s", "designsafe.storage.default", "storage system id")
	rootCmd.PersistentFlags().StringVarP(&asUser, "user", "u", "", "act as this portal user; empty skips permission filters where allowed")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(lsCmd, findCmd, indexCmd, mvCmd, cpCmd, renameCmd, rmCmd, shareCmd)
}

// printFiles writes objects as listing records in the chosen format.
func printFiles(w io.Writer, objs ...*search.Object) error {
	files := make([]*agave.File, len(objs))
	for i, o := range objs {
		files[i] = o.ToFile()
	}
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(files)
	}
	return fmt.Errorf("unknown output format %q", output)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if current != nil {
		current.log.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
