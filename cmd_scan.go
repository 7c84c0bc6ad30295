package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	dexy "github.com/evijayan2/dexy/src"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newScanCommand(cfg *dexy.Config, globals *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <start-directory>...",
		Short: "Hash every file under the given directories",
		Long: `Scan recursively walks each start directory, hashes every regular file with
SHA-256 and writes <out>/<name>.json, a JSON object mapping each hash to the
files that have it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.StartDirs = args
			return runScan(cmd, cfg, globals)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Out, "out", "o", cfg.Out, "Output directory")
	flags.StringVarP(&cfg.Name, "name", "n", cfg.Name, "Name of the scan, used to name the output files")
	flags.IntVarP(&cfg.ThreadCount, "thread-count", "t", cfg.ThreadCount, "Number of directory workers")
	flags.IntVar(&cfg.HashWorkers, "hash-workers", cfg.HashWorkers, "Number of hashing goroutines")
	flags.BoolVarP(&cfg.IgnoreEmpty, "ignore-empty", "i", cfg.IgnoreEmpty, "Ignore empty (0 byte) files")
	flags.BoolVar(&cfg.IncludeHidden, "include-hidden", cfg.IncludeHidden, "Include hidden files and directories")
	flags.BoolVarP(&cfg.LoadFileAttributes, "load-file-attributes", "l", cfg.LoadFileAttributes, "Record size, timestamps and type of each file")
	flags.StringVar(&cfg.IndexDB, "db", cfg.IndexDB, "Also store the result in this badger index directory")
	flags.StringSliceVarP(&cfg.Exclude, "exclude", "e", nil, "Not supported: exclude paths matching a pattern")
	flags.BoolVarP(&cfg.UpdateExisting, "update-existing", "u", false, "Not supported: update an existing scan")

	return cmd
}

func runScan(cmd *cobra.Command, cfg *dexy.Config, globals *globalFlags) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	display := newProgressDisplay(errOut, isTerminal(errOut))
	logger, closeLog, err := newLogger(display, isTerminal(errOut), globals.logFile, globals.level())
	if err != nil {
		return err
	}
	defer closeLog()
	ctx := logger.WithContext(cmd.Context())

	roots, err := cfg.StartDirectories()
	if err != nil {
		return err
	}
	logger.Info().Msgf("starting at: %s", roots[0])

	scanner := dexy.NewScanner(cfg.ScanOptions())
	display.Start(scanner.Progress())
	result, err := scanner.Run(ctx, roots)
	display.Stop()
	if err != nil {
		return err
	}

	path, err := dexy.WriteResult(ctx, cfg.Out, cfg.Name, result)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputPath(), err)
	}

	if cfg.IndexDB != "" {
		if err := saveIndex(cfg, result); err != nil {
			return err
		}
		logger.Info().Str("db", cfg.IndexDB).Str("name", cfg.Name).Msg("Stored scan in index")
	}

	printSummary(cmd.OutOrStdout(), dexy.Summarize(result), scanner.Progress().Snapshot(), path)
	return nil
}

func saveIndex(cfg *dexy.Config, result dexy.ScanResult) error {
	store, err := dexy.OpenIndexStore(cfg.IndexDB)
	if err != nil {
		return err
	}
	if err := store.SaveScan(cfg.Name, result); err != nil {
		store.Close()
		return err
	}
	return store.Close()
}

func printSummary(w io.Writer, summary dexy.Summary, snap dexy.ProgressSnapshot, path string) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Scanned %s files in %s directories (%s) in %.1fs\n",
		humanize.Comma(int64(summary.Files)), humanize.Comma(snap.Processed),
		humanize.IBytes(uint64(snap.Bytes)), snap.Elapsed.Seconds())
	fmt.Fprintf(w, "  unique hashes:    %s\n", humanize.Comma(int64(summary.Digests)))
	fmt.Fprintf(w, "  duplicate groups: %s (%s files)\n",
		humanize.Comma(int64(summary.DuplicateGroups)), humanize.Comma(int64(summary.DuplicateFiles)))
	if summary.Reclaimable > 0 {
		fmt.Fprintf(w, "  reclaimable:      %s\n", humanize.IBytes(uint64(summary.Reclaimable)))
	}
	if snap.Skipped > 0 || snap.Errors > 0 {
		color.New(color.FgYellow).Fprintf(w, "  skipped %d entries, %d errors\n", snap.Skipped, snap.Errors)
	}
	fmt.Fprintf(w, "Result written to %s\n", path)
}
