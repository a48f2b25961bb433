package ir

// DomTree holds the immediate dominator of every reachable block in a Func,
// computed with the iterative Cooper-Harvey-Kennedy algorithm (simple,
// quadratic-worst-case but functions here have few blocks).
type DomTree struct {
	idom     map[BlockID]BlockID
	postOrd  []BlockID
	rpoIndex map[BlockID]int
}

// Dominates reports whether a dominates b (a block always dominates itself).
func (d *DomTree) Dominates(a, b BlockID) bool {
	if a == b {
		return true
	}
	cur, ok := d.idom[b]
	for ok {
		if cur == a {
			return true
		}
		cur, ok = d.idom[cur]
	}
	return false
}

// BuildDomTree computes the dominator tree of f's reachable blocks from its
// entry block.
func BuildDomTree(f *Func) *DomTree {
	d := &DomTree{idom: make(map[BlockID]BlockID)}
	if f == nil || !f.Entry.IsValid() {
		return d
	}

	order := reversePostorder(f)
	d.postOrd = order
	d.rpoIndex = make(map[BlockID]int, len(order))
	for i, b := range order {
		d.rpoIndex[b] = i
	}
	if len(order) == 0 {
		return d
	}

	d.idom[f.Entry] = f.Entry
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == f.Entry {
				continue
			}
			blk := f.Block(b)
			if blk == nil {
				continue
			}
			var newIdom BlockID = NoBlockID
			for _, p := range blk.Preds {
				if _, ok := d.idom[p]; !ok {
					continue
				}
				if newIdom == NoBlockID {
					newIdom = p
					continue
				}
				newIdom = d.intersect(newIdom, p)
			}
			if newIdom == NoBlockID {
				continue
			}
			if cur, ok := d.idom[b]; !ok || cur != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}
	return d
}

func (d *DomTree) intersect(a, b BlockID) BlockID {
	for a != b {
		for d.rpoIndex[a] > d.rpoIndex[b] {
			a = d.idom[a]
		}
		for d.rpoIndex[b] > d.rpoIndex[a] {
			b = d.idom[b]
		}
	}
	return a
}

func reversePostorder(f *Func) []BlockID {
	visited := make(map[BlockID]bool, len(f.Blocks))
	var post []BlockID
	var walk func(BlockID)
	walk = func(b BlockID) {
		if visited[b] {
			return
		}
		visited[b] = true
		blk := f.Block(b)
		if blk == nil {
			return
		}
		for _, s := range blk.Term.Successors() {
			walk(s)
		}
		post = append(post, b)
	}
	walk(f.Entry)
	// reverse postorder
	out := make([]BlockID, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}
