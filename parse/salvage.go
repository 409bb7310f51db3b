package parse

import "github.com/EvenZeppa/BNFParserLib/ptree"

// salvage flattens a successfully-built node for partial recovery: it
// recurses through the four synthetic composite tags (<seq>, <alt>,
// <opt>, <rep>) without emitting them, and collects every
// named-rule or literal leaf it finds along the way. This is what
// lets a failed Sequence (or an incompletely consumed top-level
// parse) surface "the sub-trees that did parse" instead of either
// the bare composite wrapper or nothing at all.
func salvage(n *ptree.Node) []*ptree.Node {
	if n == nil {
		return nil
	}

	switch n.Symbol {
	case ptree.TagSequence, ptree.TagAlternative, ptree.TagOptional, ptree.TagRepeat:
		var out []*ptree.Node
		for _, c := range n.Children {
			out = append(out, salvage(c)...)
		}
		return out
	default:
		return []*ptree.Node{n}
	}
}
