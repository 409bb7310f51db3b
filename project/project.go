// Package project is a boundary consumer of package ptree: it turns a
// parse tree into a flat symbol-to-values table for callers that want
// "what did rule X match" without walking the tree themselves. It
// depends on ptree; nothing in the core depends on it.
package project

import "github.com/EvenZeppa/BNFParserLib/ptree"

// Flatten walks root in document order and buckets every named node's
// Matched text under its rule name. Synthetic composite tags
// (<seq>/<alt>/<opt>/<rep>) are not themselves named rules and are
// skipped, but their descendants are still visited, so a named rule
// nested under an Optional or Repeat is still captured. A nil root
// yields an empty, non-nil table.
func Flatten(root *ptree.Node) map[string][]string {
	out := make(map[string][]string)
	root.Walk(func(n *ptree.Node) {
		if isSynthetic(n.Symbol) {
			return
		}
		out[n.Symbol] = append(out[n.Symbol], n.Matched)
	})
	return out
}

// FlattenRule is Flatten restricted to a single rule name, for callers
// that only care about one symbol's matches (e.g. "every <channel>
// this chanlist matched").
func FlattenRule(root *ptree.Node, name string) []string {
	return Flatten(root)[name]
}

func isSynthetic(symbol string) bool {
	switch symbol {
	case ptree.TagSequence, ptree.TagAlternative, ptree.TagOptional, ptree.TagRepeat:
		return true
	default:
		return false
	}
}
