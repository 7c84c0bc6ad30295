package main

import (
	dexy "github.com/evijayan2/dexy/src"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbose bool
	quiet   bool
	logFile string
}

func (g *globalFlags) level() zerolog.Level {
	switch {
	case g.verbose:
		return zerolog.DebugLevel
	case g.quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func newRootCommand(cfg *dexy.Config) *cobra.Command {
	globals := &globalFlags{logFile: cfg.LogFile}

	cmd := &cobra.Command{
		Use:   "dexy",
		Short: "Content-addressed index of directory trees",
		Long: `dexy recursively scans directories, generating a SHA-256 hash for every
file it finds, and writes the result to JSON grouped by hash so that files
with identical content can be found.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&globals.verbose, "verbose", false, "Log every hashed file")
	cmd.PersistentFlags().BoolVarP(&globals.quiet, "quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringVar(&globals.logFile, "log-file", globals.logFile, "Also append logs to this file")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newScanCommand(cfg, globals))
	cmd.AddCommand(newDupsCommand(cfg, globals))

	return cmd
}
