package gbl

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCategoricalSplit(t *testing.T) {
	decoder := NewTreeDecoder(colorCatalog(t), SplitValueTable{{-1, 1, -1}}, nil)
	root, err := decoder.Decode(0, stumpTree(0, 0, 1.0, -1.0, nil))
	require.NoError(t, err)

	assert.Equal(t, TruePredicate{}, root.Predicate)
	assert.Nil(t, root.Score)
	require.Len(t, root.Children, 2)

	left, ok := root.Children[0].Predicate.(*SimpleSetPredicate)
	require.True(t, ok)
	assert.Equal(t, "color", left.Field())
	assert.Equal(t, []string{"red", "blue"}, left.Values)
	assert.Equal(t, []int{0, 2}, left.Levels)
	assert.Equal(t, 1.0, *root.Children[0].Score)

	right, ok := root.Children[1].Predicate.(*SimpleSetPredicate)
	require.True(t, ok)
	assert.Equal(t, []string{"green"}, right.Values)
	assert.Equal(t, -1.0, *root.Children[1].Score)

	tree := &Tree{Root: root}
	for level, expected := range []float64{1.0, -1.0, 1.0} {
		score, err := tree.Score([]float64{float64(level)})
		require.NoError(t, err)
		assert.Equal(t, expected, score)
	}
}

func TestDecodeContinuousSplitWithMissingBranch(t *testing.T) {
	decoder := NewTreeDecoder(ageCatalog(t), nil, nil)
	root, err := decoder.Decode(0, stumpTree(0, 30.0, 0.2, 0.8, float(0.8)))
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	missing, left, right := root.Children[0], root.Children[1], root.Children[2]
	assert.Equal(t, &SimplePredicate{FieldName: "age", FeatureIndex: 0, Operator: IsMissing}, missing.Predicate)
	assert.Equal(t, &SimplePredicate{FieldName: "age", FeatureIndex: 0, Operator: LessThan, Value: 30}, left.Predicate)
	assert.Equal(t, &SimplePredicate{FieldName: "age", FeatureIndex: 0, Operator: GreaterOrEqual, Value: 30}, right.Predicate)

	assert.Equal(t, 3, missing.ID)
	assert.Equal(t, 0.2, *left.Score)
	assert.Equal(t, *right.Score, *missing.Score)
	assert.Empty(t, missing.Children)
}

func TestDecodeSharedChildIsDecodedOnce(t *testing.T) {
	tree := stumpTree(0, 30.0, 0.2, 0.8, nil)
	tree.MissingNode[0] = 2

	decoder := NewTreeDecoder(ageCatalog(t), nil, nil)
	root, err := decoder.Decode(0, tree)
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	missing, right := root.Children[0], root.Children[2]
	assert.Equal(t, right.ID, missing.ID)
	assert.Equal(t, right.Score, missing.Score)
	assert.Equal(t, IsMissing, missing.Predicate.(*SimplePredicate).Operator)
	assert.Equal(t, GreaterOrEqual, right.Predicate.(*SimplePredicate).Operator)
}

func TestContinuousPartitionIsExhaustive(t *testing.T) {
	decoder := NewTreeDecoder(ageCatalog(t), nil, nil)
	root, err := decoder.Decode(0, stumpTree(0, 30.0, 0.2, 0.8, nil))
	require.NoError(t, err)

	left, right := root.Children[0].Predicate, root.Children[1].Predicate
	for _, v := range []float64{math.Inf(-1), -1, 0, 29.999999, 30, 30.000001, 1e9, math.Inf(1)} {
		assert.NotEqual(t, left.SatisfiedBy(v), right.SatisfiedBy(v), "value %v", v)
	}
	assert.False(t, left.SatisfiedBy(math.NaN()))
	assert.False(t, right.SatisfiedBy(math.NaN()))
}

func TestNeutralLevelIsInNeitherSet(t *testing.T) {
	decoder := NewTreeDecoder(colorCatalog(t), SplitValueTable{{-1, 0, 1}}, nil)
	root, err := decoder.Decode(4, stumpTree(0, 0, 1.0, -1.0, nil))
	require.NoError(t, err)

	left := root.Children[0].Predicate.(*SimpleSetPredicate)
	right := root.Children[1].Predicate.(*SimpleSetPredicate)
	assert.Equal(t, []string{"red"}, left.Values)
	assert.Equal(t, []string{"blue"}, right.Values)
	for _, level := range left.Levels {
		assert.NotContains(t, right.Levels, level)
	}

	_, err = (&Tree{Index: 4, Root: root}).Score([]float64{1})
	assert.ErrorIs(t, err, ErrNoTrueChild)
}

func TestDecodeLeafAndSplitShape(t *testing.T) {
	// root splits on age, its left child splits on color
	tree := RawTree{
		SplitVar:      []int{0, 1, Absent, Absent, Absent, Absent},
		SplitCodePred: []float64{30, 0, 0, 0, 0, 0},
		LeftNode:      []int{1, 2, Absent, Absent, Absent, Absent},
		RightNode:     []int{4, 3, Absent, Absent, Absent, Absent},
		MissingNode:   []int{5, Absent, Absent, Absent, Absent, Absent},
		Prediction:    []float64{0, 0, 1, 2, 3, 4},
	}
	catalog, err := NewFieldCatalog("y", []string{"age", "color"}, []OpType{Continuous, Categorical},
		[][]string{nil, {"red", "green", "blue"}})
	require.NoError(t, err)

	root, err := NewTreeDecoder(catalog, SplitValueTable{{-1, 1, 1}}, nil).Decode(0, tree)
	require.NoError(t, err)

	var walk func(node *Node)
	walk = func(node *Node) {
		raw := node.ID
		if tree.SplitVar[raw] == Absent {
			require.NotNil(t, node.Score)
			assert.Equal(t, tree.Prediction[raw], *node.Score)
			assert.Empty(t, node.Children)
			return
		}
		assert.Nil(t, node.Score)
		present := 0
		for _, child := range []int{tree.MissingNode[raw], tree.LeftNode[raw], tree.RightNode[raw]} {
			if child != Absent {
				present++
			}
		}
		assert.Len(t, node.Children, present)
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(root)
}

func TestPredicatesAreSharedAcrossTrees(t *testing.T) {
	cache := NewPredicateCache()
	decoder := NewTreeDecoder(colorCatalog(t), SplitValueTable{{-1, 1, -1}, {-1, 1, -1}}, cache)

	first, err := decoder.Decode(0, stumpTree(0, 0, 1, 2, nil))
	require.NoError(t, err)
	second, err := decoder.Decode(1, stumpTree(0, 1, 3, 4, nil))
	require.NoError(t, err)

	assert.Same(t, first.Children[0].Predicate, second.Children[0].Predicate)
	assert.Same(t, first.Children[1].Predicate, second.Children[1].Predicate)
	assert.Equal(t, 2, cache.Len())
}

func TestDecodeMalformedTrees(t *testing.T) {
	catalog, err := NewFieldCatalog("y", []string{"age", "color"}, []OpType{Continuous, Categorical},
		[][]string{nil, {"red", "green", "blue"}})
	require.NoError(t, err)
	table := SplitValueTable{{-1, 1, -1}, {-1, 1}}

	cycle := stumpTree(0, 30, 0, 0, nil)
	cycle.SplitVar[2] = 0
	cycle.RightNode[2] = 0
	leafWithChild := stumpTree(0, 30, 0, 0, nil)
	leafWithChild.LeftNode[1] = 2
	unequal := stumpTree(0, 30, 0, 0, nil)
	unequal.Prediction = unequal.Prediction[:2]
	badWeight := stumpTree(0, 30, 0, 0, nil)
	badWeight.Weight = []float64{1}
	badChild := stumpTree(0, 30, 0, 0, nil)
	badChild.RightNode[0] = 7

	tests := []struct {
		name string
		tree RawTree
		node int
	}{
		{"empty tree", RawTree{}, -1},
		{"unequal lengths", unequal, -1},
		{"unequal weight", badWeight, -1},
		{"split table index out of range", stumpTree(1, 2, 0, 0, nil), 0},
		{"split table index not integral", stumpTree(1, 0.5, 0, 0, nil), 0},
		{"flag row length mismatch", stumpTree(1, 1, 0, 0, nil), 0},
		{"split variable out of range", stumpTree(2, 30, 0, 0, nil), 0},
		{"child out of range", badChild, 0},
		{"cycle", cycle, 0},
		{"leaf with child", leafWithChild, 1},
		{"NaN threshold", stumpTree(0, math.NaN(), 0, 0, nil), 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewTreeDecoder(catalog, table, nil).Decode(7, test.tree)
			var malformed *MalformedTreeError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, 7, malformed.Tree)
			assert.Equal(t, test.node, malformed.Node)
		})
	}
}

func TestDecodeUnsupportedFieldType(t *testing.T) {
	catalog, err := NewFieldCatalog("y", []string{"when"}, []OpType{Unsupported}, nil)
	require.NoError(t, err)

	_, err = NewTreeDecoder(catalog, nil, nil).Decode(2, stumpTree(0, 1, 0, 0, nil))
	var unsupported *UnsupportedFieldTypeError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, 2, unsupported.Tree)
	assert.Equal(t, 0, unsupported.Node)
	assert.Equal(t, "when", unsupported.Field)
	assert.Equal(t, Unsupported, unsupported.OpType)
}

func TestDecodeRecordCounts(t *testing.T) {
	tree := stumpTree(0, 30, 0.2, 0.8, nil)
	tree.Weight = []float64{10, 4, 6}

	root, err := NewTreeDecoder(ageCatalog(t), nil, nil).Decode(0, tree)
	require.NoError(t, err)
	assert.Equal(t, 10.0, *root.RecordCount)
	assert.Equal(t, 4.0, *root.Children[0].RecordCount)
	assert.Equal(t, 6.0, *root.Children[1].RecordCount)
}
