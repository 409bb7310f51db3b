// Command bnfparser is a small CLI over this module's core: load a
// grammar file, parse an input against one of its rules, and report
// the resulting parse tree or furthest-failure diagnostic.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/EvenZeppa/BNFParserLib/grammar"
	"github.com/EvenZeppa/BNFParserLib/parse"
	"github.com/EvenZeppa/BNFParserLib/project"
)

func main() {
	var (
		grammarFile string
		startRule   string
		debug       bool
		fingerprint bool
		telemetry   string
		maxDepth    int
	)

	rootCmd := &cobra.Command{
		Use:           "bnfparser",
		Short:         "Compile a grammar file and parse input against it",
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&grammarFile, "grammar", "g", "", "Path to a grammar file (one rule per line)")
	rootCmd.PersistentFlags().StringVarP(&startRule, "start", "s", "", "Start rule name")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fingerprint, "fingerprint", false, "Print the grammar's BLAKE2b fingerprint")
	rootCmd.PersistentFlags().StringVar(&telemetry, "telemetry", "off", "Telemetry tier: off, basic, or full")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "Bound recursive-descent depth (0 = unbounded)")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	engineOpts := func() ([]parse.Option, error) {
		mode, err := parseTelemetryMode(telemetry)
		if err != nil {
			return nil, err
		}
		opts := []parse.Option{parse.WithLogger(logger()), parse.WithTelemetry(mode)}
		if maxDepth > 0 {
			opts = append(opts, parse.WithMaxDepth(maxDepth))
		}
		return opts, nil
	}

	rootCmd.AddCommand(
		newCheckCmd(&grammarFile, &fingerprint, logger),
		newParseCmd(&grammarFile, &startRule, &fingerprint, logger, engineOpts),
		newWatchCmd(&grammarFile, &startRule, logger, engineOpts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bnfparser:", err)
		os.Exit(1)
	}
}

// parseTelemetryMode maps the --telemetry flag's string value onto a
// parse.TelemetryMode.
func parseTelemetryMode(s string) (parse.TelemetryMode, error) {
	switch s {
	case "off", "":
		return parse.TelemetryOff, nil
	case "basic":
		return parse.TelemetryBasic, nil
	case "full":
		return parse.TelemetryFull, nil
	default:
		return parse.TelemetryOff, fmt.Errorf("unknown --telemetry value %q (want off, basic, or full)", s)
	}
}

// newCheckCmd validates a grammar file's shape without parsing any
// input: every rule must compile, and unknown Symbol references are
// only caught once an Engine actually tries to resolve them, so check
// also resolves each rule's own referenced symbols eagerly.
func newCheckCmd(grammarFile *string, fingerprint *bool, logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a grammar file's shape without parsing any input",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *grammarFile == "" {
				return fmt.Errorf("--grammar is required")
			}
			g := grammar.New(grammar.WithLogger(logger()), grammar.WithFingerprint(*fingerprint))
			if err := loadGrammar(*grammarFile, g); err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			if *fingerprint {
				fp, err := g.Fingerprint()
				if err != nil {
					return err
				}
				fmt.Println(fp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d rules\n", len(g.Names()))
			return nil
		},
	}
}

// newParseCmd compiles the grammar and parses a single input argument
// against --start, printing the resulting parse tree (as JSON) on
// success or the furthest-failure diagnostic otherwise.
func newParseCmd(grammarFile, startRule *string, fingerprint *bool, logger func() *slog.Logger, engineOpts func() ([]parse.Option, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "parse INPUT",
		Short: "Parse INPUT against --start and print the resulting tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if *grammarFile == "" || *startRule == "" {
				return fmt.Errorf("--grammar and --start are required")
			}
			g := grammar.New(grammar.WithLogger(logger()), grammar.WithFingerprint(*fingerprint))
			if err := loadGrammar(*grammarFile, g); err != nil {
				return err
			}

			opts, err := engineOpts()
			if err != nil {
				return err
			}
			e := parse.New(g, opts...)
			ctx, err := e.Parse(*startRule, args[0])
			if err != nil {
				return err
			}

			return reportResult(cmd, ctx)
		},
	}
}

// newWatchCmd recompiles the grammar file and re-parses a sample input
// file each time either changes, for iterative grammar development.
func newWatchCmd(grammarFile, startRule *string, logger func() *slog.Logger, engineOpts func() ([]parse.Option, error)) *cobra.Command {
	var inputFile string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile the grammar and re-parse --input on every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *grammarFile == "" || *startRule == "" || inputFile == "" {
				return fmt.Errorf("--grammar, --start, and --input are required")
			}
			opts, err := engineOpts()
			if err != nil {
				return err
			}
			return runWatch(cmd, *grammarFile, inputFile, *startRule, logger(), opts)
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to the sample input file to re-parse on every change")
	return cmd
}

func reportResult(cmd *cobra.Command, ctx *parse.Context) error {
	defer reportTelemetry(cmd, ctx)

	if !ctx.Success {
		fmt.Fprintf(cmd.OutOrStdout(), "fail at %d: expected %s\n", ctx.ErrorPos, ctx.Expected)
		if len(ctx.PartialNodes) > 0 {
			table := make(map[string][]string)
			for _, n := range ctx.PartialNodes {
				for symbol, values := range project.Flatten(n) {
					table[symbol] = append(table[symbol], values...)
				}
			}
			enc, _ := json.MarshalIndent(table, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(enc))
		}
		return nil
	}

	enc, err := json.MarshalIndent(ctx.AST, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(enc))
	return nil
}

// reportTelemetry prints ctx.Telemetry to stderr when --telemetry
// enabled it; TotalTime only carries a value at the full tier.
func reportTelemetry(cmd *cobra.Command, ctx *parse.Context) {
	if ctx.Telemetry == nil {
		return
	}
	t := ctx.Telemetry
	fmt.Fprintf(cmd.ErrOrStderr(), "telemetry: rules=%d backtracks=%d max_depth=%d total_time=%s\n",
		t.RuleInvocations, t.BacktrackCount, t.MaxDepthSeen, t.TotalTime)
}
