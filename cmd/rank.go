package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fitz/triage/internal/config"
	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
	"github.com/fitz/triage/internal/report"
	"github.com/fitz/triage/internal/taskfile"
	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank [file]",
	Short: "Rank tasks by priority",
	Long: `Score and rank tasks with a prioritization strategy.

With a file argument the tasks are read from a YAML or JSON task file.
Without one they are loaded from the configured store (TRIAGE_BACKEND).

The strategy comes from --strategy, then the task file, then TRIAGE_STRATEGY.
The reference date comes from --date, then the task file, then today.

With --watch the file is re-ranked every time it is saved.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRank(cmd, args); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("strategy", "s", "", "Strategy preset ("+strings.Join(priority.StrategyNames(), ", ")+")")
	rankCmd.Flags().String("date", "", "Reference date (YYYY-MM-DD)")
	rankCmd.Flags().Bool("all", false, "Include completed and cancelled tasks")
	rankCmd.Flags().IntP("limit", "n", 0, "Show at most this many tasks (0 shows all)")
	rankCmd.Flags().Bool("json", false, "Print the ranking as JSON")
	rankCmd.Flags().BoolP("verbose", "v", false, "Show the explanation for each task")
	rankCmd.Flags().BoolP("watch", "w", false, "Re-rank the task file whenever it changes")
}

// rankOptions holds the parsed rank flags.
type rankOptions struct {
	strategy      string
	date          string
	includeClosed bool
	limit         int
	json          bool
	verbose       bool
	watch         bool
}

func rankFlags(cmd *cobra.Command) rankOptions {
	var o rankOptions
	o.strategy, _ = cmd.Flags().GetString("strategy")
	o.date, _ = cmd.Flags().GetString("date")
	o.includeClosed, _ = cmd.Flags().GetBool("all")
	o.limit, _ = cmd.Flags().GetInt("limit")
	o.json, _ = cmd.Flags().GetBool("json")
	o.verbose, _ = cmd.Flags().GetBool("verbose")
	o.watch, _ = cmd.Flags().GetBool("watch")
	return o
}

func runRank(cmd *cobra.Command, args []string) error {
	opts := rankFlags(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		if opts.watch {
			return errors.New("--watch needs a task file")
		}
		store, closeStore, err := openStore(cmd.Context(), cfg, false, newLogger(cfg))
		if err != nil {
			return fmt.Errorf("%w\nPass a task file or configure the %s backend with 'triage config set'", err, cfg.Backend)
		}
		defer closeStore()

		tasks, err := store.Snapshot(cmd.Context(), opts.includeClosed)
		if err != nil {
			return err
		}
		return printRanking(cmd, tasks, nil, cfg, opts)
	}

	doc, err := taskfile.Load(args[0])
	if err != nil {
		return err
	}
	if err := rankDocument(cmd, doc, cfg, opts); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "\nwatching %s (Ctrl-C to stop)\n", args[0])
	return taskfile.Watch(ctx, args[0], taskfile.DefaultDebounce,
		func(doc *taskfile.Document) {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", report.Dim("── reloaded "+time.Now().Format("15:04:05")+" ──"))
			if err := rankDocument(cmd, doc, cfg, opts); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		},
		func(err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		})
}

// rankDocument ranks the tasks of a loaded task file.
func rankDocument(cmd *cobra.Command, doc *taskfile.Document, cfg *config.Config, opts rankOptions) error {
	for _, w := range doc.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	tasks := doc.Tasks
	if !opts.includeClosed {
		tasks = doc.OpenTasks()
	}
	return printRanking(cmd, tasks, doc, cfg, opts)
}

func printRanking(cmd *cobra.Command, tasks []models.Task, doc *taskfile.Document, cfg *config.Config, opts rankOptions) error {
	strategy, err := rankStrategy(opts.strategy, doc, cfg.Strategy)
	if err != nil {
		return err
	}
	ref, err := rankDate(opts.date, doc, time.Now())
	if err != nil {
		return err
	}

	result, err := priority.Score(tasks, strategy, ref)
	if err != nil {
		return err
	}

	if opts.json {
		return report.PrintJSON(cmd.OutOrStdout(), result, opts.limit)
	}
	report.PrintRanking(cmd.OutOrStdout(), result, report.Options{Limit: opts.limit, Verbose: opts.verbose})
	return nil
}

// rankStrategy resolves the strategy: flag, then task file, then configuration.
func rankStrategy(flagName string, doc *taskfile.Document, configured string) (models.Strategy, error) {
	if flagName != "" {
		return priority.LookupStrategy(flagName)
	}
	if doc != nil && doc.StrategyFromFile {
		return doc.Strategy, nil
	}
	return priority.LookupStrategy(configured)
}

// rankDate resolves the reference date: flag, then task file, then now.
func rankDate(flagDate string, doc *taskfile.Document, now time.Time) (time.Time, error) {
	ref, err := models.ParseDate(flagDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %w", err)
	}
	if ref != nil {
		return *ref, nil
	}
	if doc != nil && doc.ReferenceDate != nil {
		return *doc.ReferenceDate, nil
	}
	return now, nil
}
