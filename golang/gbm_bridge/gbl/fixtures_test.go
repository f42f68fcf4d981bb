package gbl

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/rawmodel"
)

func colorCatalog(t *testing.T) *FieldCatalog {
	catalog, err := NewFieldCatalog("y", []string{"color"}, []OpType{Categorical}, [][]string{{"red", "green", "blue"}})
	require.NoError(t, err)
	return catalog
}

func ageCatalog(t *testing.T) *FieldCatalog {
	catalog, err := NewFieldCatalog("y", []string{"age"}, []OpType{Continuous}, nil)
	require.NoError(t, err)
	return catalog
}

func leafTree(score float64) RawTree {
	return RawTree{
		SplitVar:      []int{Absent},
		SplitCodePred: []float64{0},
		LeftNode:      []int{Absent},
		RightNode:     []int{Absent},
		MissingNode:   []int{Absent},
		Prediction:    []float64{score},
	}
}

//stumpTree splits node 0 on feature, node 1 is the left leaf, node 2 the right leaf and node 3,
//when missingScore is given, the missing leaf.
func stumpTree(feature int, split float64, left, right float64, missingScore *float64) RawTree {
	tree := RawTree{
		SplitVar:      []int{feature, Absent, Absent},
		SplitCodePred: []float64{split, 0, 0},
		LeftNode:      []int{1, Absent, Absent},
		RightNode:     []int{2, Absent, Absent},
		MissingNode:   []int{Absent, Absent, Absent},
		Prediction:    []float64{0, left, right},
	}
	if missingScore != nil {
		tree.SplitVar = append(tree.SplitVar, Absent)
		tree.SplitCodePred = append(tree.SplitCodePred, 0)
		tree.LeftNode = append(tree.LeftNode, Absent)
		tree.RightNode = append(tree.RightNode, Absent)
		tree.MissingNode = append(tree.MissingNode, Absent)
		tree.MissingNode[0] = 3
		tree.Prediction = append(tree.Prediction, *missingScore)
	}
	return tree
}

func float(v float64) *float64 {
	return &v
}

func rawTreeValue(splitVar []int, splitCode []float64, left, right, missing []int, weight, prediction []float64) *rawmodel.Value {
	return rawmodel.NewList(
		rawmodel.Ints(splitVar...),
		rawmodel.Reals(splitCode...),
		rawmodel.Ints(left...),
		rawmodel.Ints(right...),
		rawmodel.Ints(missing...),
		rawmodel.Reals(make([]float64, len(splitVar))...),
		rawmodel.Reals(weight...),
		rawmodel.Reals(prediction...),
	)
}

//mixedModel has a continuous feature "age", a categorical feature "color" and three trees:
//a stump on age with a missing leaf, a stump on color with a missing leaf and a single leaf.
func mixedModel(t *testing.T, trees ...*rawmodel.Value) *rawmodel.Value {
	if len(trees) == 0 {
		trees = []*rawmodel.Value{
			rawTreeValue(
				[]int{0, -1, -1, -1}, []float64{30, 0.2, 0.8, 0.8},
				[]int{1, -1, -1, -1}, []int{2, -1, -1, -1}, []int{3, -1, -1, -1},
				[]float64{100, 40, 50, 10}, []float64{0.5, 0.2, 0.8, 0.8},
			),
			rawTreeValue(
				[]int{1, -1, -1, -1}, []float64{0, 1, -1, 0},
				[]int{1, -1, -1, -1}, []int{2, -1, -1, -1}, []int{3, -1, -1, -1},
				[]float64{100, 60, 30, 10}, []float64{0.1, 1, -1, 0},
			),
			rawTreeValue(
				[]int{-1}, []float64{0.5}, []int{-1}, []int{-1}, []int{-1},
				[]float64{100}, []float64{0.5},
			),
		}
	}
	model, err := rawmodel.NewModel(
		rawmodel.Named{Name: FieldInitF, Value: rawmodel.Reals(0.4)},
		rawmodel.Named{Name: FieldResponseName, Value: rawmodel.Strings("y")},
		rawmodel.Named{Name: FieldVarNames, Value: rawmodel.Strings("age", "color")},
		rawmodel.Named{Name: FieldVarType, Value: rawmodel.Reals(0, 3)},
		rawmodel.Named{Name: FieldVarLevels, Value: rawmodel.NewList(
			rawmodel.Reals(10, 20, 30, 40),
			rawmodel.Strings("red", "green", "blue"),
		)},
		rawmodel.Named{Name: FieldSplits, Value: rawmodel.NewList(rawmodel.Reals(-1, 1, -1))},
		rawmodel.Named{Name: FieldTrees, Value: rawmodel.NewList(trees...)},
	)
	require.NoError(t, err)
	return model
}
