package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imageoptim/internal/worker"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check which optimizer binaries are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			tty := stdoutIsTTY()
			resolver := eng.Resolver()

			seen := map[string]bool{}
			var rows [][]string
			for _, w := range eng.Registry().Workers() {
				for _, name := range w.UsedBins() {
					if seen[name] {
						continue
					}
					seen[name] = true

					bin, err := resolver.Resolve(name)
					if err == nil {
						err = worker.BinConstraint(name).Check(bin)
					}
					switch {
					case err != nil && bin == nil:
						rows = append(rows, []string{name, styled(styleFailed, "missing", tty), "-", err.Error()})
					case err != nil:
						rows = append(rows, []string{name, styled(styleFailed, "bad version", tty), bin.Version.String(), err.Error()})
					default:
						rows = append(rows, []string{name, styled(styleSaved, "ok", tty), bin.Version.String(), bin.Path})
					}
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Binary", "Status", "Version", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
