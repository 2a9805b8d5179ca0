package comment

// Stats is the partition of a comment set by approval status.
type Stats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// BuildTree assembles a flat, insertion-ordered comment list into trees.
// Children are attached to their parent's Replies in input order; comments
// whose parent is absent from the input are promoted to top level so an
// incomplete payload still renders.
func BuildTree(flat []*Comment) []*Comment {
	byID := make(map[int64]*Comment, len(flat))
	nodes := make([]*Comment, len(flat))
	for i, c := range flat {
		n := c.Clone()
		n.Replies = nil
		byID[n.ID] = n
		nodes[i] = n
	}

	var roots []*Comment
	for _, n := range nodes {
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Flatten walks trees depth-first and returns every node in render order.
func Flatten(roots []*Comment) []*Comment {
	var out []*Comment
	Walk(roots, func(c *Comment, level int) {
		out = append(out, c)
	})
	return out
}

// Walk visits every node depth-first, reporting its nesting level
// (top-level comments are level 0).
func Walk(roots []*Comment, visit func(c *Comment, level int)) {
	var rec func(nodes []*Comment, level int)
	rec = func(nodes []*Comment, level int) {
		for _, n := range nodes {
			visit(n, level)
			if len(n.Replies) > 0 {
				rec(n.Replies, level+1)
			}
		}
	}
	rec(roots, 0)
}

// Count returns the total number of comments including nested replies.
func Count(roots []*Comment) int {
	total := 0
	Walk(roots, func(*Comment, int) { total++ })
	return total
}

// Find returns the comment with the given id, searching nested replies.
func Find(roots []*Comment, id int64) *Comment {
	var found *Comment
	Walk(roots, func(c *Comment, level int) {
		if found == nil && c.ID == id {
			found = c
		}
	})
	return found
}

// Partition tallies comments by approval status across whole trees.
func Partition(roots []*Comment) Stats {
	var s Stats
	Walk(roots, func(c *Comment, level int) {
		s.Total++
		switch c.Approval.Coerce() {
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		default:
			s.Pending++
		}
	})
	return s
}

// FilterByStatus returns all comments (flattened) with the given status.
func FilterByStatus(roots []*Comment, status ApprovalStatus) []*Comment {
	var out []*Comment
	Walk(roots, func(c *Comment, level int) {
		if c.Approval.Coerce() == status {
			out = append(out, c)
		}
	})
	return out
}

// MaxLevel returns the deepest nesting level present, or -1 when empty.
func MaxLevel(roots []*Comment) int {
	max := -1
	Walk(roots, func(c *Comment, level int) {
		if level > max {
			max = level
		}
	})
	return max
}
