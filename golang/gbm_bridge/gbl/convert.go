package gbl

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/rawmodel"
	"go.uber.org/zap"
)

//Names of the raw gbm fields.
const (
	FieldInitF        = "initF"
	FieldTrees        = "trees"
	FieldSplits       = "c.splits"
	FieldResponseName = "response.name"
	FieldVarNames     = "var.names"
	FieldVarType      = "var.type"
	FieldVarLevels    = "var.levels"
)

//Positions of the per-node vectors in a raw tree.
const (
	vectorSplitVar = iota
	vectorSplitCodePred
	vectorLeftNode
	vectorRightNode
	vectorMissingNode
	vectorErrorReduction
	vectorWeight
	vectorPrediction
)

//GBM is the typed content of a raw gbm object.
type GBM struct {
	Target       string
	Baseline     float64
	FeatureNames []string
	OpTypes      []OpType
	Levels       [][]string
	Trees        []RawTree
	Splits       SplitValueTable
}

//ReadGBM extracts the gbm fields from a raw model.
func ReadGBM(r rawmodel.Reader) (*GBM, error) {
	gbm := &GBM{}

	initF, err := r.Field(FieldInitF)
	if err != nil {
		return nil, err
	}
	if gbm.Baseline, err = initF.RealAt(0); err != nil {
		return nil, err
	}

	responseName, err := r.Field(FieldResponseName)
	if err != nil {
		return nil, err
	}
	if gbm.Target, err = responseName.StringAt(0); err != nil {
		return nil, err
	}

	if err := readFeatures(r, gbm); err != nil {
		return nil, err
	}

	splits, err := r.Field(FieldSplits)
	if err != nil {
		return nil, err
	}
	if gbm.Splits, err = readSplitTable(splits); err != nil {
		return nil, err
	}

	trees, err := r.Field(FieldTrees)
	if err != nil {
		return nil, err
	}
	if trees.Kind() != rawmodel.Null {
		gbm.Trees = make([]RawTree, trees.Len())
		for i := range gbm.Trees {
			tree, err := trees.Item(i)
			if err != nil {
				return nil, err
			}
			if gbm.Trees[i], err = readRawTree(tree); err != nil {
				return nil, errors.Wrapf(err, "tree %d", i)
			}
		}
	}
	return gbm, nil
}

func readFeatures(r rawmodel.Reader, gbm *GBM) error {
	names, err := r.Field(FieldVarNames)
	if err != nil {
		return err
	}
	if gbm.FeatureNames, err = names.Strings(); err != nil {
		return err
	}

	types, err := r.Field(FieldVarType)
	if err != nil {
		return err
	}
	if types.Len() != len(gbm.FeatureNames) {
		return configurationErrorf("%s has %d elements for %d features", FieldVarType, types.Len(), len(gbm.FeatureNames))
	}

	levels, err := r.Field(FieldVarLevels)
	if err != nil {
		return err
	}

	gbm.OpTypes = make([]OpType, len(gbm.FeatureNames))
	gbm.Levels = make([][]string, len(gbm.FeatureNames))
	for i := range gbm.FeatureNames {
		varType, err := types.RealAt(i)
		if err != nil {
			return err
		}
		switch {
		case varType == 0:
			gbm.OpTypes[i] = Continuous
			continue
		case varType > 0:
			gbm.OpTypes[i] = Categorical
		default:
			gbm.OpTypes[i] = Unsupported
			continue
		}

		level, err := levels.Item(i)
		if err != nil {
			return err
		}
		if gbm.Levels[i], err = level.Strings(); err != nil {
			return err
		}
		if float64(len(gbm.Levels[i])) != varType {
			return configurationErrorf("feature %q has %s %v but %d levels",
				gbm.FeatureNames[i], FieldVarType, varType, len(gbm.Levels[i]))
		}
	}
	return nil
}

func readSplitTable(splits *rawmodel.Value) (SplitValueTable, error) {
	if splits.Kind() == rawmodel.Null {
		return nil, nil
	}
	table := make(SplitValueTable, splits.Len())
	for i := range table {
		row, err := splits.Item(i)
		if err != nil {
			return nil, err
		}
		if row.Kind() == rawmodel.Null {
			continue
		}
		if table[i], err = row.Ints(); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func treeVector(tree *rawmodel.Value, position int) (*rawmodel.Value, error) {
	if tree.Names() != nil {
		return tree.Elem(rawmodel.TreeVectorNames[position])
	}
	return tree.Item(position)
}

//nullableInts reads a node vector, an empty vector decodes as null.
func nullableInts(v *rawmodel.Value) ([]int, error) {
	if v.Kind() == rawmodel.Null {
		return []int{}, nil
	}
	return v.Ints()
}

func nullableReals(v *rawmodel.Value) ([]float64, error) {
	if v.Kind() == rawmodel.Null {
		return []float64{}, nil
	}
	return v.Reals()
}

func readRawTree(tree *rawmodel.Value) (RawTree, error) {
	var raw RawTree
	if tree.Kind() != rawmodel.List {
		return raw, errors.Errorf("expected a list of node vectors, got %s", tree.Kind())
	}

	ints := []struct {
		position int
		dst      *[]int
	}{
		{vectorSplitVar, &raw.SplitVar},
		{vectorLeftNode, &raw.LeftNode},
		{vectorRightNode, &raw.RightNode},
		{vectorMissingNode, &raw.MissingNode},
	}
	for _, v := range ints {
		vector, err := treeVector(tree, v.position)
		if err != nil {
			return raw, err
		}
		if *v.dst, err = nullableInts(vector); err != nil {
			return raw, err
		}
	}

	reals := []struct {
		position int
		dst      *[]float64
	}{
		{vectorSplitCodePred, &raw.SplitCodePred},
		{vectorPrediction, &raw.Prediction},
	}
	for _, v := range reals {
		vector, err := treeVector(tree, v.position)
		if err != nil {
			return raw, err
		}
		if *v.dst, err = nullableReals(vector); err != nil {
			return raw, err
		}
	}

	if weight, err := treeVector(tree, vectorWeight); err == nil && weight.Kind() != rawmodel.Null {
		if raw.Weight, err = weight.Reals(); err != nil {
			return raw, err
		}
	}
	return raw, nil
}

//ConvertParams tunes a conversion.
type ConvertParams struct {
	ThreadsNum int
}

//Convert builds the field catalog and decodes every tree. The conversion is atomic:
//the lowest indexed failing tree aborts it and no ensemble is returned.
func Convert(gbm *GBM, params ConvertParams) (*Ensemble, error) {
	started := time.Now()
	catalog, err := NewFieldCatalog(gbm.Target, gbm.FeatureNames, gbm.OpTypes, gbm.Levels)
	if err != nil {
		return nil, err
	}

	var cache PredicateCache
	if params.ThreadsNum > 1 {
		cache = NewConcurrentPredicateCache()
	} else {
		cache = NewPredicateCache()
	}
	decoder := NewTreeDecoder(catalog, gbm.Splits, cache)

	decodeTree := func(index int) (*Tree, error) {
		root, err := decoder.Decode(index, gbm.Trees[index])
		if err != nil {
			return nil, err
		}
		tree := NewTree(catalog, index, root)
		zap.S().Debugf("tree %d decoded, %d active fields", index+1, len(tree.ActiveFields))
		return tree, nil
	}

	trees := make([]*Tree, len(gbm.Trees))
	errs := make([]error, len(gbm.Trees))
	if params.ThreadsNum <= 1 {
		for i := range trees {
			if trees[i], errs[i] = decodeTree(i); errs[i] != nil {
				break
			}
		}
	} else {
		taskPool := NewPool(params.ThreadsNum)
		for i := range trees {
			taskPool.AddTask(&TaskDecodeTree{trees, errs, i, decodeTree})
		}
		taskPool.Close()
		taskPool.WaitAll()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	ensemble, err := AssembleEnsemble(catalog, trees, gbm.Baseline)
	if err != nil {
		return nil, err
	}
	zap.S().Infof("converted %d trees over %d features (%d distinct set predicates) in %v",
		len(trees), catalog.NumFeatures(), cache.Len(), time.Since(started))
	return ensemble, nil
}
