package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"imageoptim/internal/metascan"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "analyze <file|dir>...",
		Short: "Report format, dimensions, and metadata weight without modifying anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			inputs, err := gatherInputs(args, recursive)
			if err != nil {
				return err
			}

			printer := message.NewPrinter(language.English)
			var rows [][]string
			for _, input := range inputs {
				info, err := metascan.File(input)
				if err != nil {
					logger.Warn("analyze failed", "path", input, "error", err)
					rows = append(rows, []string{input, "-", "-", "-", "-"})
					continue
				}

				dims := "-"
				if info.Width > 0 {
					dims = strconv.Itoa(info.Width) + "x" + strconv.Itoa(info.Height)
				}
				exif := "-"
				if info.ExifBytes > 0 {
					exif = printer.Sprintf("%d bytes / %d tags", info.ExifBytes, info.ExifTags)
				}
				rows = append(rows, []string{
					input,
					formatLabel(info.Format),
					dims,
					printer.Sprintf("%d", info.Size),
					exif,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Format", "Dimensions", "Size", "EXIF"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into directories")
	return cmd
}
