package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "imageoptim",
		Short:         "Lossless image optimization via external binaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Enable debug logging")
	flags.IntVar(&ctx.threads, "threads", 0, "Concurrent images (default: CPU count)")
	flags.BoolVar(&ctx.allowLossy, "allow-lossy", false, "Allow lossy workers and options")
	flags.BoolVar(&ctx.skipMissing, "skip-missing-workers", false, "Skip explicitly enabled workers whose binaries are missing")
	flags.StringVar(&ctx.cacheDir, "cache-dir", "", "Directory for the result cache")

	rootCmd.AddCommand(newOptimizeCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
