package gbl

import (
	mapset "github.com/deckarep/golang-set"
)

//CollectFieldReferences returns the names of the fields referenced by predicates reachable from
//the roots. Every distinct node is visited once, however many branches lead to it.
func CollectFieldReferences(roots ...*Node) mapset.Set {
	fields := mapset.NewThreadUnsafeSet()
	visited := make(map[*Node]struct{})
	stack := make([]*Node, 0, len(roots))
	for _, root := range roots {
		if root != nil {
			stack = append(stack, root)
		}
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[node]; ok {
			continue
		}
		visited[node] = struct{}{}

		if node.Predicate != nil && node.Predicate.Field() != "" {
			fields.Add(node.Predicate.Field())
		}
		stack = append(stack, node.Children...)
	}
	return fields
}
