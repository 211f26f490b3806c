package main

import (
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/database"
	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/spf13/cobra"
)

var (
	lsOffset, lsLimit int
	indexUpdate       bool
	indexPems         bool
)

// lookup finds path as the acting user, or unfiltered when no user is set.
func lookup(cmd *cobra.Command, path string) (*search.Object, error) {
	return current.store.FromFilePath(cmd.Context(), systemID, asUser, path)
}

func requireUser() error {
	if asUser == "" {
		return fmt.Errorf("--user is required for this command")
	}
	return nil
}

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List the direct children of a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		dir := "/" + asUser
		if len(args) == 1 {
			dir = args[0]
		}
		objs, total, err := current.store.Listing(cmd.Context(), systemID, asUser, dir, search.Page{From: lsOffset, Size: lsLimit})
		if err != nil {
			return err
		}
		current.log.Debug("listing", "dir", dir, "total", total)
		return printFiles(cmd.OutOrStdout(), objs...)
	},
}

var findCmd = &cobra.Command{
	Use:   "find <dir>",
	Short: "List every descendant of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objs, err := current.store.ListingRecursive(cmd.Context(), systemID, asUser, args[0])
		if err != nil {
			return err
		}
		return printFiles(cmd.OutOrStdout(), objs...)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index a directory listing fetched from the tenant as --user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := database.Connect(current.cfg, current.log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		clients := services.NewAgaveClients(db, current.cfg.AgaveBaseURL, current.cfg.AgaveClientKey, current.cfg.AgaveClientSecret, current.log)
		client, err := clients.ForUser(ctx, asUser)
		if err != nil {
			return err
		}
		files, err := client.ListFiles(ctx, systemID, args[0])
		if err != nil {
			return err
		}

		indexed := make([]*search.Object, 0, len(files))
		for _, f := range files {
			if indexPems {
				if f.Permissions, err = client.FilePems(ctx, systemID, f.FullPath()); err != nil {
					return fmt.Errorf("pems %s: %w", f.FullPath(), err)
				}
			}
			o, err := current.store.FromAgaveFile(ctx, asUser, f, search.UpsertOptions{AutoUpdate: indexUpdate, GetPems: indexPems})
			if err != nil {
				return err
			}
			indexed = append(indexed, o)
		}
		current.log.Info("indexed", "dir", args[0], "count", len(indexed))
		return printFiles(cmd.OutOrStdout(), indexed...)
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <path> <dest>",
	Short: "Move a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		moved, err := current.store.Move(cmd.Context(), o, asUser, args[1])
		if err != nil {
			return err
		}
		return printFiles(cmd.OutOrStdout(), moved)
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <path> <dest>",
	Short: "Copy a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		o, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		if _, err := current.store.Copy(cmd.Context(), o, asUser, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "copied %s to %s\n", o.FullPath(), args[1])
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <path> <name>",
	Short: "Rename a file or directory in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		renamed, err := current.store.Rename(cmd.Context(), o, asUser, args[1])
		if err != nil {
			return err
		}
		return printFiles(cmd.OutOrStdout(), renamed)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file or directory and everything below it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		n, err := current.store.DeleteRecursive(cmd.Context(), o)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d documents\n", n)
		return nil
	},
}

var shareCmd = &cobra.Command{
	Use:   "share <path> <user> <READ|WRITE|EXECUTE|ALL>",
	Short: "Grant a user access to a file or directory",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		level, err := search.ParsePermissionLevel(args[2])
		if err != nil {
			return err
		}
		o, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		shared, err := current.store.Share(cmd.Context(), o, asUser, args[1], level)
		if err != nil {
			return err
		}
		return printFiles(cmd.OutOrStdout(), shared)
	},
}

func init() {
	lsCmd.Flags().IntVar(&lsOffset, "offset", 0, "first entry")
	lsCmd.Flags().IntVar(&lsLimit, "limit", search.DefaultPageSize, "page size")
	indexCmd.Flags().BoolVar(&indexUpdate, "update", false, "refresh metadata of entries already indexed")
	indexCmd.Flags().BoolVar(&indexPems, "pems", false, "fetch and store each entry's permissions")
}
