package gbl

import (
	"fmt"
	"math"
)

//Absent marks a missing split variable or child in the raw arrays.
const Absent = -1

//RawTree is one gbm tree as parallel per-node arrays, the root is node 0.
//SplitCodePred holds the threshold of a continuous split or the row of the split table
//of a categorical one. Weight is optional.
type RawTree struct {
	SplitVar      []int
	SplitCodePred []float64
	LeftNode      []int
	RightNode     []int
	MissingNode   []int
	Weight        []float64
	Prediction    []float64
}

//Len returns the number of nodes.
func (t RawTree) Len() int {
	return len(t.SplitVar)
}

func (t RawTree) validate() error {
	n := t.Len()
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	type vector struct {
		name   string
		length int
	}
	vectors := []vector{
		{"SplitCodePred", len(t.SplitCodePred)},
		{"LeftNode", len(t.LeftNode)},
		{"RightNode", len(t.RightNode)},
		{"MissingNode", len(t.MissingNode)},
		{"Prediction", len(t.Prediction)},
	}
	if t.Weight != nil {
		vectors = append(vectors, vector{"Weight", len(t.Weight)})
	}
	for _, v := range vectors {
		if v.length != n {
			return fmt.Errorf("%s has %d elements, SplitVar has %d", v.name, v.length, n)
		}
	}
	return nil
}

//SplitValueTable holds the categorical splits: one row of flags per split, one flag per level.
//-1 sends the level left, +1 right, anything else to neither side.
type SplitValueTable [][]int

const (
	flagLeft  = -1
	flagRight = 1
)

//Node is a decoded tree node. A leaf carries Score, a split carries Children in the order
//missing, left, right, each guarded by its Predicate.
type Node struct {
	ID          int
	Predicate   Predicate
	Score       *float64
	RecordCount *float64
	Children    []*Node
}

//IsLeaf reports whether the node carries a score.
func (n *Node) IsLeaf() bool {
	return n.Score != nil
}

//TreeDecoder turns raw trees into predicate trees. It keeps no per-tree state, so one
//decoder serves parallel calls when its cache is concurrent.
type TreeDecoder struct {
	catalog *FieldCatalog
	table   SplitValueTable
	cache   PredicateCache
}

//NewTreeDecoder creates a decoder over a catalog and a split table. A nil cache gets a
//single goroutine cache.
func NewTreeDecoder(catalog *FieldCatalog, table SplitValueTable, cache PredicateCache) *TreeDecoder {
	if cache == nil {
		cache = NewPredicateCache()
	}
	return &TreeDecoder{catalog: catalog, table: table, cache: cache}
}

type decodeState struct {
	*TreeDecoder
	treeIndex int
	tree      *RawTree
	arena     map[int]*Node
	onPath    map[int]bool
}

//Decode converts a raw tree into a node tree rooted at raw node 0 with a true predicate.
func (d *TreeDecoder) Decode(treeIndex int, tree RawTree) (*Node, error) {
	if err := tree.validate(); err != nil {
		return nil, &MalformedTreeError{Tree: treeIndex, Node: -1, Reason: err.Error()}
	}
	state := &decodeState{
		TreeDecoder: d,
		treeIndex:   treeIndex,
		tree:        &tree,
		arena:       make(map[int]*Node, tree.Len()),
		onPath:      make(map[int]bool),
	}
	return state.decode(0, TruePredicate{})
}

func (s *decodeState) malformed(node int, format string, args ...interface{}) error {
	return &MalformedTreeError{Tree: s.treeIndex, Node: node, Reason: fmt.Sprintf(format, args...)}
}

func (s *decodeState) decode(i int, predicate Predicate) (*Node, error) {
	if s.onPath[i] {
		return nil, s.malformed(i, "cycle through node %d", i)
	}
	if decoded, ok := s.arena[i]; ok {
		reused := *decoded
		reused.Predicate = predicate
		return &reused, nil
	}

	node := &Node{ID: i, Predicate: predicate}
	if s.tree.Weight != nil {
		weight := s.tree.Weight[i]
		node.RecordCount = &weight
	}

	children := [3]int{s.tree.MissingNode[i], s.tree.LeftNode[i], s.tree.RightNode[i]}
	for _, child := range children {
		if child != Absent && (child < 0 || child >= s.tree.Len()) {
			return nil, s.malformed(i, "child %d is outside [0, %d)", child, s.tree.Len())
		}
	}

	splitVar := s.tree.SplitVar[i]
	if splitVar == Absent {
		for _, child := range children {
			if child != Absent {
				return nil, s.malformed(i, "leaf references child %d", child)
			}
		}
		score := s.tree.Prediction[i]
		node.Score = &score
		s.arena[i] = node
		return node, nil
	}

	predicates, err := s.splitPredicates(i, splitVar)
	if err != nil {
		return nil, err
	}

	s.onPath[i] = true
	for k, child := range children {
		if child == Absent {
			continue
		}
		decoded, err := s.decode(child, predicates[k])
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, decoded)
	}
	delete(s.onPath, i)

	s.arena[i] = node
	return node, nil
}

//splitPredicates returns the missing, left and right predicates of split node i.
func (s *decodeState) splitPredicates(i, splitVar int) ([3]Predicate, error) {
	var predicates [3]Predicate
	if splitVar < 0 || splitVar >= s.catalog.NumFeatures() {
		return predicates, s.malformed(i, "split variable %d is outside [0, %d)", splitVar, s.catalog.NumFeatures())
	}
	field := &s.catalog.fields[splitVar+1]
	split := s.tree.SplitCodePred[i]

	predicates[0] = newMissingPredicate(field.Name, splitVar)
	switch field.OpType {
	case Continuous:
		if math.IsNaN(split) {
			return predicates, s.malformed(i, "threshold of %q is NaN", field.Name)
		}
		predicates[1] = &SimplePredicate{FieldName: field.Name, FeatureIndex: splitVar, Operator: LessThan, Value: split}
		predicates[2] = &SimplePredicate{FieldName: field.Name, FeatureIndex: splitVar, Operator: GreaterOrEqual, Value: split}
	case Categorical:
		if split != math.Trunc(split) || split < 0 || split >= float64(len(s.table)) {
			return predicates, s.malformed(i, "categorical split index %v is outside [0, %d)", split, len(s.table))
		}
		flags := s.table[int(split)]
		if len(flags) != len(field.Values) {
			return predicates, s.malformed(i, "split row %d has %d flags, field %q has %d levels",
				int(split), len(flags), field.Name, len(field.Values))
		}
		predicates[1] = s.cachedSetPredicate(field, splitVar, flags, true)
		predicates[2] = s.cachedSetPredicate(field, splitVar, flags, false)
	default:
		return predicates, &UnsupportedFieldTypeError{Tree: s.treeIndex, Node: i, Field: field.Name, OpType: field.OpType}
	}
	return predicates, nil
}

func (s *decodeState) cachedSetPredicate(field *Field, feature int, flags []int, left bool) *SimpleSetPredicate {
	key := NewSetPredicateKey(feature, flags, left)
	return s.cache.GetOrBuild(key, func() *SimpleSetPredicate {
		return buildSetPredicate(field, feature, flags, left)
	})
}

//buildSetPredicate keeps the levels flagged for the side, in domain order.
func buildSetPredicate(field *Field, feature int, flags []int, left bool) *SimpleSetPredicate {
	wanted := flagRight
	if left {
		wanted = flagLeft
	}
	predicate := &SimpleSetPredicate{FieldName: field.Name, FeatureIndex: feature}
	for level, flag := range flags {
		if flag == wanted {
			predicate.Values = append(predicate.Values, field.Values[level])
			predicate.Levels = append(predicate.Levels, level)
		}
	}
	return predicate
}
