package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sydlexius/wantsync/internal/config"
	"github.com/sydlexius/wantsync/internal/diag"
	"github.com/sydlexius/wantsync/internal/history"
	"github.com/sydlexius/wantsync/internal/provider"
	"github.com/sydlexius/wantsync/internal/provider/discogs"
	"github.com/sydlexius/wantsync/internal/wantlist"
)

var tokenHelpURL = provider.NameDiscogs.HelpURL()

type importOptions struct {
	token      string
	format     string
	delimiter  string
	remove     bool
	delay      time.Duration
	output     string
	yes        bool
	noHistory  bool
	keepQuotes bool
}

// importPlan is the fully resolved set of choices for one run.
type importPlan struct {
	path       string
	token      string
	format     string
	delimiter  rune
	direction  wantlist.Direction
	delay      time.Duration
	output     string
	keepQuotes bool
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Add or remove the releases listed in a file to or from your wantlist",
		Long: `Reads a delimited file, one release per line in the Discogs wantlist export layout:

  Catalog#,Artist,Title,Label,Format,Rating,Released,release_id,Notes

Only Artist, Title and release_id are used. Each line is searched by artist and
title; results whose id appears in the line are kept, otherwise every result is
kept when no id was found, and the release id alone is tried as a last resort.

Without a file argument the command asks for the file, token, format, delimiter
and direction interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.token, "token", "", "Discogs personal access token (not stored)")
	flags.StringVar(&opts.format, "format", "", "Restrict searches to a format such as Vinyl")
	flags.StringVar(&opts.delimiter, "delimiter", "", "Field delimiter of the input file")
	flags.BoolVar(&opts.remove, "remove", false, "Remove the matched releases instead of adding them")
	flags.DurationVar(&opts.delay, "delay", config.DefaultDelay, "Pause before each Discogs call")
	flags.StringVar(&opts.output, "output", "", "File receiving the run's diagnostics")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Start without waiting for confirmation")
	flags.BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history database")
	flags.BoolVar(&opts.keepQuotes, "keep-quotes", false, "Keep double quotes inside fields")

	return cmd
}

func runImport(cmd *cobra.Command, ctx *commandContext, opts importOptions, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	p := newPrompter(cmd.InOrStdin(), out)

	settings, err := ctx.settings()
	if err != nil {
		return err
	}

	stored, err := settings.HasAPIKey(cmd.Context(), provider.NameDiscogs)
	if err != nil {
		return err
	}
	plan, err := resolvePlan(cmd, cfg, opts, args, p, stored)
	if err != nil {
		return err
	}

	runCtx := cmd.Context()
	if plan.token != "" {
		runCtx = provider.WithAPIKeyOverride(runCtx, provider.NameDiscogs, plan.token)
	}

	session, err := discogs.NewSession(runCtx, ctx.adapter(settings))
	if err != nil {
		return fmt.Errorf("authenticating with %s: %w", provider.NameDiscogs.DisplayName(), err)
	}

	printRunInfo(out, session.User, plan)
	if !opts.yes {
		if err := p.Wait("\nPress return to continue (ctrl-C to exit)"); err != nil {
			return err
		}
	}

	f, err := diag.OpenOutputFile(plan.output)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	dlog := diag.New(diag.WithConsole(out), diag.WithFile(f), diag.WithLogger(ctx.logger))
	session.Pacer = provider.FixedDelay(plan.delay)
	session.Diag = dlog

	pipeline := wantlist.NewPipeline(session, wantlist.Options{
		Delimiter:  plan.delimiter,
		Format:     plan.format,
		Direction:  plan.direction,
		KeepQuotes: plan.keepQuotes,
	}, ctx.logger)

	var (
		svc *history.Service
		run *history.Run
	)
	if !opts.noHistory {
		if svc, err = ctx.historyService(); err != nil {
			return err
		}
		run = &history.Run{
			InputPath: plan.path,
			Direction: plan.direction,
			Format:    plan.format,
			Delimiter: string(plan.delimiter),
			Username:  session.User.Username,
		}
		if err := svc.StartRun(runCtx, run); err != nil {
			return err
		}
		pipeline.SetRecorder(svc.Recorder(run.ID))
	}

	sum, runErr := pipeline.RunFile(runCtx, plan.path)

	if run != nil {
		if err := svc.FinishRun(context.WithoutCancel(runCtx), run.ID, sum, runErr); err != nil {
			ctx.logger.Warn("recording run totals", slog.String("run_id", run.ID), slog.Any("error", err))
		}
	}

	printSummary(out, sum, plan, dlog, run)
	return runErr
}

// resolvePlan merges flags, config and, in interactive mode, answers to
// prompts. Interactive mode is used when no input file was named. The token
// is asked for in either mode when none is configured or stored.
func resolvePlan(cmd *cobra.Command, cfg *config.Config, opts importOptions, args []string, p *prompter, haveStoredToken bool) (importPlan, error) {
	out := cmd.OutOrStdout()
	flags := cmd.Flags()

	plan := importPlan{
		path:       cfg.Import.File,
		token:      cfg.Discogs.Token,
		format:     cfg.Import.Format,
		delimiter:  cfg.DelimiterRune(),
		direction:  wantlist.ParseDirection(cfg.Import.Direction),
		delay:      cfg.Import.Delay,
		output:     cfg.Import.OutputPath,
		keepQuotes: cfg.Import.KeepQuotes || opts.keepQuotes,
	}
	if len(args) > 0 {
		plan.path = args[0]
	}
	interactive := plan.path == ""

	if opts.token != "" {
		plan.token = opts.token
	}
	if flags.Changed("delay") {
		plan.delay = opts.delay
	}
	if plan.delay < 0 {
		return plan, fmt.Errorf("delay must not be negative: %s", plan.delay)
	}
	if opts.output != "" {
		plan.output = opts.output
	}
	if plan.output == "" {
		plan.output = config.DefaultOutputPath
	}

	if interactive {
		for {
			path, err := p.Line("\nPlease enter the name of your list file: ")
			if err != nil {
				return plan, err
			}
			path = strings.TrimSpace(path)
			if fileExists(path) {
				plan.path = path
				break
			}
			fmt.Fprintf(out, "ERROR: File %s does not exist.\n", path)
		}
	} else if !fileExists(plan.path) {
		return plan, fmt.Errorf("input file %s does not exist", plan.path)
	}

	if plan.token == "" && !haveStoredToken {
		fmt.Fprintf(out, "\nYou need a user token for your account. You can get this from '%s'\n", tokenHelpURL)
		token, err := p.Secret("Please enter the user token for your account: ")
		if err != nil {
			return plan, err
		}
		if plan.token = strings.TrimSpace(token); plan.token == "" {
			return plan, errors.New("a Discogs user token is required")
		}
	}

	switch {
	case flags.Changed("format"):
		plan.format = opts.format
	case interactive:
		format, err := p.Line("\nPlease enter the format of your records (e.g. Vinyl, blank for everything!): ")
		if err != nil {
			return plan, err
		}
		plan.format = strings.TrimSpace(format)
	}

	delim := ""
	switch {
	case flags.Changed("delimiter"):
		delim = opts.delimiter
	case interactive:
		answer, err := p.Line("\nPlease enter the delimiter for input file lines (e.g. for Discogs exported file ','): ")
		if err != nil {
			return plan, err
		}
		delim = answer
	}
	if delim != "" {
		r, err := config.ParseDelimiter(delim)
		if err != nil {
			return plan, err
		}
		plan.delimiter = r
	}

	switch {
	case opts.remove:
		plan.direction = wantlist.DirectionRemove
	case interactive:
		answer, err := p.Line("\nAdd or Remove releases from Wantlist ('a' or 'r'): ")
		if err != nil {
			return plan, err
		}
		plan.direction = wantlist.ParseDirection(answer)
	}
	return plan, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func printRunInfo(w io.Writer, user wantlist.Identity, plan importPlan) {
	if plan.direction == wantlist.DirectionRemove {
		fmt.Fprintf(w, "\nINFO: Removing releases from Wantlist of : %s\n", user)
	} else {
		fmt.Fprintf(w, "\nINFO: Adding releases to Wantlist of : %s\n", user)
	}
	fmt.Fprintf(w, "INFO: from file      : %s\n", plan.path)
	fmt.Fprintf(w, "INFO: with delimiter : %s\n", strconv.QuoteRune(plan.delimiter))
	if plan.token != "" {
		fmt.Fprintf(w, "INFO: using token    : %s\n", maskToken(plan.token))
	} else {
		fmt.Fprintln(w, "INFO: using token    : stored")
	}
	format := plan.format
	if format == "" {
		format = "Any"
	}
	fmt.Fprintf(w, "INFO: of format      : %s\n", format)
	fmt.Fprintf(w, "INFO: call delay     : %s\n", plan.delay)
}

func printSummary(w io.Writer, sum wantlist.Summary, plan importPlan, dlog *diag.Log, run *history.Run) {
	verb := "Releases added"
	if plan.direction == wantlist.DirectionRemove {
		verb = "Releases removed"
	}
	rows := [][]string{
		{"Lines read", strconv.Itoa(sum.LinesRead)},
		{"Lines skipped", strconv.Itoa(sum.LinesSkipped)},
		{"Lines processed", strconv.Itoa(sum.LinesProcessed)},
		{"Lines resolved", strconv.Itoa(sum.LinesResolved)},
	}
	for _, t := range wantlist.Tiers() {
		rows = append(rows, []string{"  " + string(t), strconv.Itoa(sum.Tiers[t])})
	}
	rows = append(rows,
		[]string{verb, strconv.Itoa(sum.EntriesApplied)},
		[]string{"Failed updates", strconv.Itoa(sum.EntriesFailed)},
		[]string{"Warnings", strconv.Itoa(dlog.Count(diag.Warning))},
		[]string{"Errors", strconv.Itoa(dlog.Count(diag.Error))},
	)

	fmt.Fprintln(w)
	fmt.Fprintln(w, renderTable([]string{"Import", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(w, "Diagnostics written to %s\n", plan.output)
	if run != nil {
		fmt.Fprintf(w, "Run ID: %s\n", run.ID)
	}
}
