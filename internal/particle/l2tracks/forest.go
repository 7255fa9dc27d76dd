package l2tracks

// forest is a union-find structure over labels, indexed by label. Index 0 is
// the reserved "empty" label and never participates in unions.
type forest struct {
	parent []int
}

func newForest() *forest {
	return &forest{parent: []int{0}}
}

// add seeds the next label as its own root and returns it.
func (f *forest) add() int {
	id := len(f.parent)
	f.parent = append(f.parent, id)
	return id
}

// find returns the root of x and points every node on the path at it.
func (f *forest) find(x int) int {
	root := x
	for f.parent[root] != root {
		root = f.parent[root]
	}
	for f.parent[x] != root {
		next := f.parent[x]
		f.parent[x] = root
		x = next
	}
	return root
}

// union attaches b's root under a's root. No rank balancing.
func (f *forest) union(a, b int) {
	ra, rb := f.find(a), f.find(b)
	if ra != rb {
		f.parent[rb] = ra
	}
}
