package decomposition

// FindByID returns the node with the given id, or nil.
func FindByID(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, child := range root.Children {
		if found := FindByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// FindParentName returns the name of id's parent. The root has no parent.
func FindParentName(root *Node, id string) (string, bool) {
	parent := findParent(root, id)
	if parent == nil {
		return "", false
	}
	return parent.Name, true
}

func findParent(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	for _, child := range root.Children {
		if child.ID == id {
			return root
		}
		if p := findParent(child, id); p != nil {
			return p
		}
	}
	return nil
}

// CollectDescendantIDs returns every id strictly below id, in depth-first
// pre-order. Hidden (collapsed) subtrees are included.
func CollectDescendantIDs(root *Node, id string) []string {
	node := FindByID(root, id)
	if node == nil {
		return nil
	}
	var ids []string
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			ids = append(ids, child.ID)
			walk(child)
		}
	}
	walk(node)
	return ids
}

// ReplaceNode returns a new tree in which the node with the given id is
// replaced by update(copy). Only the path from the root to id is copied;
// every other subtree is shared with the input. The input tree is never
// modified. If id is not present the original root is returned.
func ReplaceNode(root *Node, id string, update func(*Node) *Node) *Node {
	if root == nil {
		return nil
	}
	replaced, ok := replace(root, id, update)
	if !ok {
		return root
	}
	return replaced
}

func replace(n *Node, id string, update func(*Node) *Node) (*Node, bool) {
	if n.ID == id {
		return update(n.clone()), true
	}
	for i, child := range n.Children {
		if newChild, ok := replace(child, id, update); ok {
			c := n.clone()
			c.Children[i] = newChild
			return c, true
		}
	}
	return n, false
}

// Depth returns the depth of id (root = 0) or -1 if absent.
func Depth(root *Node, id string) int {
	var search func(n *Node, d int) int
	search = func(n *Node, d int) int {
		if n.ID == id {
			return d
		}
		for _, child := range n.Children {
			if found := search(child, d+1); found >= 0 {
				return found
			}
		}
		return -1
	}
	if root == nil {
		return -1
	}
	return search(root, 0)
}

// Walk visits every node depth-first with its depth. Returning false from
// fn skips that node's children.
func Walk(root *Node, fn func(n *Node, depth int) bool) {
	var visit func(n *Node, d int)
	visit = func(n *Node, d int) {
		if !fn(n, d) {
			return
		}
		for _, child := range n.Children {
			visit(child, d+1)
		}
	}
	if root != nil {
		visit(root, 0)
	}
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	count := 0
	Walk(root, func(*Node, int) bool {
		count++
		return true
	})
	return count
}
