package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/delivery-notes/internal/blobgc"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/database"
)

func newGCCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete blobs that no document or delivery note references",
		Long: `gc removes source PDFs whose documents were deleted and cached note
renders whose pages no longer match a current note.

Uploads store their blob before the document row is written. Run gc while no
uploads are in flight. Use --dry-run to list orphans without deleting them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx := cmd.Context()

			db, err := database.New(&cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Ping(ctx); err != nil {
				return err
			}

			store, err := blobs.New(ctx, &cfg.Blobs, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, err := blobgc.Collect(ctx, db.Connection(), store, blobgc.Options{
				DryRun: dryRun,
				OnOrphan: func(key string) {
					if dryRun {
						printInfo(out, "orphan %s", key)
					}
				},
			}, logger)
			if err != nil {
				printError(cmd.ErrOrStderr(), "gc failed: %v", err)
				return err
			}

			if dryRun {
				printWarning(out, "%d of %d blobs are orphaned (dry run, nothing deleted)", result.Orphans, result.Scanned)
				return nil
			}
			printSuccess(out, "deleted %d of %d blobs", result.Deleted, result.Scanned)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list orphans without deleting")
	return cmd
}
