package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/EvenZeppa/BNFParserLib/grammar"
)

// loadGrammar reads path line by line and adds every non-blank,
// non-comment ("#"-prefixed) line to g as a rule. A file with no "::="
// on a given line is rejected by Grammar.Add itself, so the error
// already carries the offending rule text.
func loadGrammar(path string, g *grammar.Grammar) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening grammar file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := g.Add(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading grammar file: %w", err)
	}
	return nil
}
