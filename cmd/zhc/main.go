// Package main provides the zhc CLI for cleaning and analyzing zsh history
// files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"zhc/internal/analyze"
	"zhc/internal/config"
	"zhc/internal/format"
	"zhc/internal/history"
)

var version = "dev"

const (
	defaultHistoryFile = "~/.zsh_history"
	defaultTopN        = 10
	dateLayout         = "2006-01-02"
)

var rootCmd = &cobra.Command{
	Use:     "zhc",
	Short:   "Clean your zsh history by removing duplicate commands, commands matching words etc...",
	Version: version,
}

func init() {
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newParseCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "zhc: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional config file, honoring the ZHC_CONFIG
// override.
func loadConfig() (config.Config, error) {
	path := os.Getenv("ZHC_CONFIG")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, nil
		}
	}
	return config.Load(path)
}

// resolveHistoryFile picks the history path: explicit flag wins, then the
// config file, then the built-in default.
func resolveHistoryFile(flagValue string, flagSet bool, cfg config.Config) string {
	if flagSet {
		return flagValue
	}
	if cfg.HistoryFile != "" {
		return cfg.HistoryFile
	}
	return flagValue
}

func loadHistory(cmd *cobra.Command, path string) (*history.History, error) {
	h, warnings, err := history.Load(path)
	if err != nil {
		return nil, err
	}
	errs := cmd.ErrOrStderr()
	for _, warn := range warnings {
		fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
	}
	return h, nil
}

func newCleanCmd() *cobra.Command {
	var (
		historyFile    string
		keepDuplicates bool
		fromStr        string
		toStr          string
		words          []string
		ignoreCase     bool
		noBackup       bool
		dryRun         bool
		yes            bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Rewrite the history without duplicates, filtered words, or date ranges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := resolveHistoryFile(historyFile, cmd.Flags().Changed("history-file"), cfg)

			from, to, hasRange, err := parseDateRange(fromStr, toStr)
			if err != nil {
				return err
			}

			h, err := loadHistory(cmd, path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d history entries read from %s\n", h.Size(), h.Filename())

			if hasRange {
				removed := h.RemoveInRange(from, to)
				fmt.Fprintf(out, "%d entries removed in range %s → %s\n",
					removed, from.Format(dateLayout), to.Format(dateLayout))
			}
			if len(words) > 0 {
				removed := h.RemoveMatching(words, ignoreCase)
				fmt.Fprintf(out, "%d entries removed matching %s\n", removed, strings.Join(words, ", "))
			}
			if !keepDuplicates {
				// The percentage is relative to the size going into dedup,
				// after the range and word filters already ran.
				sizeBefore := h.Size()
				removed := h.RemoveDuplicates()
				pct := 0.0
				if sizeBefore > 0 {
					pct = float64(removed) / float64(sizeBefore) * 100
				}
				fmt.Fprintf(out, "%d entries after removing duplicates (%.0f%% of duplicates).\n", h.Size(), pct)
			}

			if dryRun {
				fmt.Fprintf(out, "dry run: leaving %s untouched\n", h.Filename())
				return nil
			}

			if !yes && isTerminal(os.Stdin.Fd()) {
				ok, err := confirm(fmt.Sprintf("Rewrite %s with %d entries? [y/N] ", h.Filename(), h.Size()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "aborted")
					return nil
				}
			}

			backup := !noBackup
			if cfg.Backup != nil && !cmd.Flags().Changed("no-backup") {
				backup = *cfg.Backup
			}

			backupPath, err := h.WriteFile(backup)
			if err != nil {
				return err
			}
			if backupPath != "" {
				fmt.Fprintf(out, "backed up the history to %s\n", backupPath)
			}
			fmt.Fprintf(out, "wrote %d entries to %s\n", h.Size(), h.Filename())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&historyFile, "history-file", "f", defaultHistoryFile, "path to the zsh history file")
	flags.BoolVar(&keepDuplicates, "keep-duplicates", false, "do not remove duplicate commands")
	flags.StringVar(&fromStr, "from", "", "remove entries dated on/after this date (YYYY-MM-DD, requires --to)")
	flags.StringVar(&toStr, "to", "", "remove entries dated on/before this date (YYYY-MM-DD, requires --from)")
	flags.StringArrayVarP(&words, "word", "w", nil, "remove entries whose command contains this word (repeatable)")
	flags.BoolVarP(&ignoreCase, "ignore-case", "i", false, "match filter words case-insensitively")
	flags.BoolVar(&noBackup, "no-backup", false, "skip the backup copy before rewriting")
	flags.BoolVar(&dryRun, "dry-run", false, "report what would be removed without writing")
	flags.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation before rewriting")

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		historyFile  string
		topFlag      int
		formatFlag   string
		forceColor   bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report statistics about the history: top commands, date range, duplicates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := resolveHistoryFile(historyFile, cmd.Flags().Changed("history-file"), cfg)

			top := topFlag
			if !cmd.Flags().Changed("top") && cfg.Top > 0 {
				top = cfg.Top
			}

			h, err := loadHistory(cmd, path)
			if err != nil {
				return err
			}

			analysis := analyze.New(h).Analyze(top)

			out := cmd.OutOrStdout()
			opts := format.Options{Format: formatFlag, Color: forceColor}
			if outFile, ok := out.(*os.File); ok && !forceNoColor {
				opts.Color = opts.Color || isTerminal(outFile.Fd())
				if w, _, err := term.GetSize(int(outFile.Fd())); err == nil && w > 0 {
					opts.MaxWidth = w
				}
			}
			return format.WriteAnalysis(out, analysis, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&historyFile, "history-file", "f", defaultHistoryFile, "path to the zsh history file")
	flags.IntVarP(&topFlag, "top", "n", defaultTopN, "how many commands and executables to rank")
	flags.StringVar(&formatFlag, "format", "table", "output format: table or json")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <record>",
		Short: "Parse a single history record and print the decoded entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := history.ParseEntry(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), entry.String())
			return nil
		},
	}
	return cmd
}

// parseDateRange validates the --from/--to pair. Both empty means no range
// filtering (ok is false); anything else requires both bounds with
// from <= to. ok carries the "range given" signal so the zero time stays a
// valid bound.
func parseDateRange(fromStr, toStr string) (from, to time.Time, ok bool, err error) {
	if fromStr == "" && toStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, false, errors.New("--from and --to must be used together")
	}

	from, err = parseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	to, err = parseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("start date %s is after end date %s", fromStr, toStr)
	}
	return from, to, true, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return t, nil
}

// confirm asks a one-line yes/no question on the terminal. Interrupt and
// end-of-input count as "no".
func confirm(prompt string) (bool, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return false, fmt.Errorf("open prompt: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
