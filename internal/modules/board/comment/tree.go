package comment

import "sort"

// Flatten linearizes a comment tree into display order: every comment
// is immediately followed by its own subtree, siblings oldest first at
// every level. The input's top-level order is normalized to the same
// rule, so the result is deterministic regardless of the feed sort the
// tree was fetched with.
//
// Each id appears exactly once (first occurrence wins), and every entry
// in the output carries its parent back-reference. A comment whose
// parent is absent from the input is kept as top-level rather than
// dropped.
func Flatten(topLevel []CommentResponse) []CommentResponse {
	if len(topLevel) == 0 {
		return []CommentResponse{}
	}

	roots := make([]CommentResponse, len(topLevel))
	copy(roots, topLevel)
	sortByTime(roots)

	// Explicit stack instead of recursion so nesting depth is bounded by
	// memory, not the call stack. Children are pushed in reverse so the
	// oldest sibling pops first.
	out := make([]CommentResponse, 0, len(roots))
	seen := make(map[uint]bool, len(roots))

	type frame struct {
		node   CommentResponse
		parent *uint
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i], parent: roots[i].Pid})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[f.node.ID] {
			continue
		}
		seen[f.node.ID] = true

		children := make([]CommentResponse, len(f.node.Replies))
		copy(children, f.node.Replies)
		sortByTime(children)

		entry := f.node
		entry.Pid = f.parent
		entry.Replies = []CommentResponse{}
		out = append(out, entry)

		id := entry.ID
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], parent: &id})
		}
	}
	return out
}

func sortByTime(comments []CommentResponse) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Time.Equal(comments[j].Time) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Time.Before(comments[j].Time)
	})
}
