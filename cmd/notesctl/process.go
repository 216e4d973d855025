package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/delivery-notes/internal/jobs"
)

func newProcessCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "process <file.pdf>...",
		Short: "Submit PDFs for automatic delivery note extraction",
		Long: `process uploads one or more PDFs to a running server and renders the
job's progress stream. Warnings raised while the job runs are printed as
they arrive. The command fails when the job ends in error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if env := os.Getenv("NOTESCTL_SERVER"); env != "" && !cmd.Flags().Changed("server") {
				server = env
			}
			out := cmd.OutOrStdout()

			resp, err := submitBatch(cmd.Context(), http.DefaultClient, server, args)
			if err != nil {
				printError(cmd.ErrOrStderr(), "%v", err)
				return err
			}
			defer resp.Body.Close()

			printInfo(out, "job %s started", resp.Header.Get("X-Job-ID"))

			bar := newProgressBar("analyzing")
			var last *jobs.Event

			err = readEvents(resp.Body, func(ev jobs.Event) {
				if last != nil && last.Status == jobs.StatusWarning {
					bar.Clear()
					printWarning(out, "%s", last.Message)
				}
				if ev.CurrentFile != "" {
					bar.Describe(fmt.Sprintf("%s (%d/%d)", ev.CurrentFile, ev.FileIndex, ev.TotalFiles))
				}
				bar.Set(ev.Progress)
				last = &ev
			})
			if err != nil {
				printError(cmd.ErrOrStderr(), "stream interrupted: %v", err)
				return err
			}
			if last == nil {
				return errors.New("stream closed without events")
			}

			return report(cmd, last)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8080", "server base URL (or NOTESCTL_SERVER)")
	return cmd
}

// report prints the terminal event.
func report(cmd *cobra.Command, ev *jobs.Event) error {
	out := cmd.OutOrStdout()

	switch ev.Status {
	case jobs.StatusCompleted:
		printSuccess(out, "%s", ev.Message)
	case jobs.StatusWarning:
		printWarning(out, "%s", ev.Message)
	case jobs.StatusError:
		printError(cmd.ErrOrStderr(), "%s", ev.Message)
		return fmt.Errorf("job failed: %s", ev.Message)
	default:
		return fmt.Errorf("stream ended before the job finished (last status %s)", ev.Status)
	}
	return nil
}
