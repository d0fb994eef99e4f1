package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/semiframes/pkg/config"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/formula"
	"github.com/matzehuels/semiframes/pkg/search"
)

// searchFlags holds the command-line flags shared by search and find.
// Flags left unset fall back to the config file.
type searchFlags struct {
	sizes       string
	output      string
	start       string
	cacheSize   int
	limit       int
	batchSize   int
	logInterval int
	threads     int
	semiframes  bool
	redis       string
	mongo       string
	tui         bool
	quiet       bool
	formula     string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.sizes, "sizes", "s", "", `sizes to search, e.g. "4" or "1-6" (default "`+config.DefaultSizes+`")`)
	flags.IntVarP(&f.cacheSize, "cache-size", "c", search.DefaultCacheSize, "canonical form cache entries (0 disables)")
	flags.IntVarP(&f.limit, "limit", "l", 0, "stop after this many families per size (0 = unlimited)")
	flags.BoolVar(&f.semiframes, "semiframes", false, "only emit families whose points are pairwise distinguished")
	flags.StringVar(&f.start, "starting-family", "", "explore only the subtree below this family")
	flags.IntVarP(&f.batchSize, "batch-size", "b", search.DefaultBatchSize, "families buffered before a write")
	flags.IntVar(&f.logInterval, "log-interval", search.DefaultLogInterval, "report progress every N explored families")
	flags.IntVarP(&f.threads, "threads", "t", search.DefaultThreads, "worker goroutines (1 = sequential, ordered output)")
	flags.StringVar(&f.redis, "redis", "", "also push families to Redis at this URL")
	flags.StringVar(&f.mongo, "mongo", "", "also insert families into MongoDB at this URI")
	flags.BoolVar(&f.tui, "tui", false, "show an interactive progress view")
}

// searchPlan is the fully resolved work of one search or find invocation.
type searchPlan struct {
	sizes   []int
	opts    search.Options
	starts  map[int]family.Family
	formula formula.Formula
	sinks   sinkOpts
	tui     bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Enumerate semitopologies (or semiframes) up to isomorphism",
		Long: `Enumerate one representative of every isomorphism class of union-closed
families over {1..n} that contain {1..n}, for each requested size.

Families are written one per line, completed with the empty set. With a
single thread the order is deterministic; more threads trade order for speed.`,
		Example: `  # All semitopologies with up to 5 points, one file per size
  semiframes search -s 1-5 -o out/families_n{n}.txt

  # Semiframes on 6 points, 8 workers, with a live progress view
  semiframes search -s 6 --semiframes -t 8 --tui -o sf_n{n}.txt

  # Mirror results into Redis
  semiframes search -s 4 --redis redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.resolveSearch(cmd, flags, false)
			if err != nil {
				return err
			}
			return c.runSearches(cmd.Context(), plan)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", `output file pattern with {n} placeholder, "-" for stdout (default "families_n{n}.txt")`)

	return cmd
}

// findCommand creates the find command: a search filtered by a formula.
func (c *CLI) findCommand() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search for families satisfying a formula",
		Long: `Search like "search" does, but only emit families whose completion satisfies
a formula. Lowercase variables range over points, uppercase over opens.

  AO X / EO X    for all / some open X
  AP x / EP x    for all / some point x
  x in X, X inter Y, nonempty X, K x (community), IC X (interior complement)
  !, &&, ||, =>  (loosest to tightest: =>, ||, &&, quantifiers, !)

Matches go to the console unless -o is given.`,
		Example: `  # Semitopologies where any two nonempty opens intersect
  semiframes find -s 1-4 -f "AO X. AO Y. (nonempty X && nonempty Y => X inter Y)"

  # Count points whose community is everything, quietly
  semiframes find -s 5 -q -f "EP x. AP y. y in K x"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.resolveSearch(cmd, flags, true)
			if err != nil {
				return err
			}
			return c.runSearches(cmd.Context(), plan)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.formula, "formula", "f", "", "formula every emitted family must satisfy")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file pattern with {n} placeholder (console if empty)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "print only counts, not the families")
	_ = cmd.MarkFlagRequired("formula")

	return cmd
}

// resolveSearch merges flags over the loaded config and validates
// everything that can be checked before any search work starts.
func (c *CLI) resolveSearch(cmd *cobra.Command, f searchFlags, find bool) (*searchPlan, error) {
	cfg := c.Config
	changed := cmd.Flags().Changed

	sizesText := cfg.Sizes
	if changed("sizes") {
		sizesText = f.sizes
	}
	sizes, err := errors.ParseSizeRange(sizesText)
	if err != nil {
		return nil, err
	}

	opts := cfg.Search
	if changed("cache-size") {
		opts.CacheSize = f.cacheSize
	}
	if changed("limit") {
		opts.Limit = f.limit
	}
	if changed("batch-size") {
		opts.BatchSize = f.batchSize
	}
	if changed("log-interval") {
		opts.LogInterval = f.logInterval
	}
	if changed("threads") {
		opts.Threads = f.threads
	}
	if changed("semiframes") {
		opts.Semiframes = f.semiframes
	}

	plan := &searchPlan{
		sizes: sizes,
		opts:  opts,
		tui:   f.tui,
		sinks: sinkOpts{
			output:  f.output,
			console: out,
			quiet:   f.quiet,
			redis:   cfg.Redis,
			mongo:   cfg.Mongo,
		},
	}
	if !find && !changed("output") {
		plan.sinks.output = cfg.Output
	}
	if changed("redis") {
		plan.sinks.redis.URL = f.redis
	}
	if changed("mongo") {
		plan.sinks.mongo.URI = f.mongo
	}

	toConsole := !f.quiet && (plan.sinks.output == "" || plan.sinks.output == "-")
	if !toConsole && !f.quiet {
		if err := errors.ValidateOutputPattern(plan.sinks.output, len(sizes)); err != nil {
			return nil, err
		}
	}
	if f.tui && toConsole {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--tui draws on the terminal; write families to a file with -o")
	}

	if find {
		plan.formula, err = formula.Parse(f.formula)
		if err != nil {
			return nil, err
		}
	}

	if f.start != "" && len(sizes) > 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--starting-family needs a single size, got %d sizes", len(sizes))
	}
	plan.starts = make(map[int]family.Family)
	for _, n := range sizes {
		probe := opts
		if f.start != "" {
			start, err := family.Parse(f.start, n)
			if err != nil {
				return nil, fmt.Errorf("starting family for n=%d: %w", n, err)
			}
			plan.starts[n] = start
			probe.Start = start
		}
		if err := probe.ValidateAndSetDefaults(n); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// runSearches runs every size of plan in turn. An output failure abandons
// only the size it happened in; the command still fails at the end.
func (c *CLI) runSearches(ctx context.Context, plan *searchPlan) error {
	if plan.tui {
		return c.runSearchesTUI(ctx, plan)
	}

	logger := loggerFromContext(ctx)
	showSpinner := logger.GetLevel() > log.DebugLevel && isatty.IsTerminal(os.Stderr.Fd())
	runner := search.NewRunner(logger)
	if showSpinner {
		runner = search.NewRunner(quietLogger(logger))
	}

	total := newProgress(logger)
	var failed []int
	for _, n := range plan.sizes {
		var spin *Spinner
		var onProgress search.ProgressFunc
		if showSpinner {
			spin = newSpinnerWithContext(ctx, fmt.Sprintf("n=%d searching", n))
			spin.Start()
			onProgress = func(explored, found int64) {
				spin.Update("n=%d · %d explored · %d found", n, explored, found)
			}
		}

		res, dests, err := c.searchSize(ctx, runner, plan, n, onProgress)
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, errors.ErrCodeIO) {
				return err
			}
			printError("n=%d: %s", n, errors.UserMessage(err))
			failed = append(failed, n)
			continue
		}

		printSuccess("n=%d %s", n, plan.opts.Mode())
		printSearchStats(res)
		for _, d := range dests {
			printFile(d)
		}
	}
	total.done("all sizes finished", "sizes", len(plan.sizes))

	if len(failed) > 0 {
		return errors.New(errors.ErrCodeIO, "output failed for sizes %v", failed)
	}
	return nil
}

// searchSize runs one size end to end: open sinks, search, close sinks.
func (c *CLI) searchSize(ctx context.Context, runner *search.Runner, plan *searchPlan, n int, onProgress search.ProgressFunc) (*search.Result, []string, error) {
	opts := plan.opts
	opts.RunID = uuid.NewString()
	opts.Start = plan.starts[n]
	opts.Progress = onProgress
	if plan.formula != nil {
		opts.Predicate = formula.NewPredicate(plan.formula)
	}

	s, dests, err := openSinks(ctx, n, opts.Mode(), opts.RunID, plan.sinks)
	if err != nil {
		return nil, nil, err
	}
	res, err := runner.Run(ctx, n, opts, s)
	if closeErr := s.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(errors.ErrCodeIO, closeErr, "close output for n=%d", n)
	}
	return res, dests, err
}

// quietLogger returns a logger that shares l's output but only reports
// warnings, for use while a spinner owns the terminal line.
func quietLogger(l *log.Logger) *log.Logger {
	q := l.With()
	q.SetLevel(log.WarnLevel)
	return q
}
