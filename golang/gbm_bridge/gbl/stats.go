package gbl

//TreeStats summarizes the shape of a decoded tree.
type TreeStats struct {
	Nodes  int
	Leaves int
	Depth  int
}

//Stats counts the nodes and leaves of the tree and measures its depth, the root being at depth 0.
func (t *Tree) Stats() TreeStats {
	var stats TreeStats
	var walk func(node *Node, depth int)
	walk = func(node *Node, depth int) {
		stats.Nodes++
		if depth > stats.Depth {
			stats.Depth = depth
		}
		if node.IsLeaf() {
			stats.Leaves++
			return
		}
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	walk(t.Root, 0)
	return stats
}
