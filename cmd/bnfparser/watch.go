package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/EvenZeppa/BNFParserLib/grammar"
	"github.com/EvenZeppa/BNFParserLib/parse"
)

// runWatch recompiles grammarFile and re-parses inputFile's contents
// against startRule every time either one changes on disk, printing
// the result after each run. A grammar, input or fatal parse error is
// printed and watching continues. It blocks until the watcher's event
// or error channel closes, or reporting a result fails.
func runWatch(cmd *cobra.Command, grammarFile, inputFile, startRule string, logger *slog.Logger, engineOpts []parse.Option) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(grammarFile); err != nil {
		return fmt.Errorf("watching %s: %w", grammarFile, err)
	}
	if err := watcher.Add(inputFile); err != nil {
		return fmt.Errorf("watching %s: %w", inputFile, err)
	}

	runOnce := func() error {
		g := grammar.New(grammar.WithLogger(logger))
		if err := loadGrammar(grammarFile, g); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "grammar error:", err)
			return nil
		}
		if err := g.Validate(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "grammar error:", err)
			return nil
		}

		input, err := os.ReadFile(inputFile)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "input error:", err)
			return nil
		}

		e := parse.New(g, engineOpts...)
		ctx, err := e.Parse(startRule, string(input))
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "fatal:", err)
			return nil
		}
		return reportResult(cmd, ctx)
	}

	if err := runOnce(); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if err := runOnce(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
