package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"imageoptim/internal/engine"
	"imageoptim/internal/imagepath"
)

func newOptimizeCommand(ctx *commandContext) *cobra.Command {
	var recursive bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "optimize <file|dir>...",
		Short: "Optimize images in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			inputs, err := gatherInputs(args, recursive)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tty := stdoutIsTTY()
			var tracker *progress.Tracker
			var pw progress.Writer
			if tty {
				pw = progress.NewWriter()
				pw.SetAutoStop(true)
				pw.SetTrackerLength(24)
				pw.SetUpdateFrequency(100 * time.Millisecond)
				tracker = &progress.Tracker{Message: "optimizing", Total: int64(len(inputs))}
				pw.AppendTracker(tracker)
				go pw.Render()
			}

			each := func(path string, opt *imagepath.Optimized, err error) any {
				if tracker != nil {
					tracker.Increment(1)
				}
				return nil
			}

			var results []engine.Result
			if dryRun {
				results, err = eng.OptimizeMany(runCtx, inputs, each)
				// Dry runs leave the originals alone; drop the temp files.
				for _, res := range results {
					if res.Optimized != nil {
						_ = res.Optimized.Path.Remove()
					}
				}
			} else {
				results, err = eng.OptimizeManyInPlace(runCtx, inputs, each)
			}
			if pw != nil {
				pw.Stop()
				for pw.IsRenderInProgress() {
					time.Sleep(10 * time.Millisecond)
				}
			}
			if err != nil {
				return err
			}

			return printResults(cmd, results, tty)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into directories")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report savings without replacing files")
	return cmd
}

func printResults(cmd *cobra.Command, results []engine.Result, tty bool) error {
	printer := message.NewPrinter(language.English)

	var rows [][]string
	var totalBefore, totalAfter int64
	var failures int
	for _, res := range results {
		switch {
		case res.Err != nil:
			failures++
			rows = append(rows, []string{res.Path, styled(styleFailed, "error", tty), res.Err.Error()})
		case res.Optimized == nil:
			rows = append(rows, []string{res.Path, styled(styleSkipped, "unchanged", tty), ""})
		default:
			after, err := res.Optimized.Size()
			if err != nil {
				after = res.Optimized.OriginalSize
			}
			totalBefore += res.Optimized.OriginalSize
			totalAfter += after
			percent := 100 * float64(res.Optimized.OriginalSize-after) / float64(res.Optimized.OriginalSize)
			rows = append(rows, []string{
				res.Path,
				styled(styleSaved, printer.Sprintf("-%d bytes", res.Optimized.OriginalSize-after), tty),
				fmt.Sprintf("%.1f%%", percent),
			})
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Result", "Savings"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	if totalBefore > 0 {
		fmt.Fprintln(out, printer.Sprintf("Total: %d -> %d bytes (%.1f%% saved)",
			totalBefore, totalAfter, 100*float64(totalBefore-totalAfter)/float64(totalBefore)))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d images failed", failures, len(results))
	}
	return nil
}
