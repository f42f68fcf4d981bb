package gbl

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//Score follows the first satisfied child from the root down to a leaf. sample holds one value
//per feature: NaN when missing, the level index for categorical features.
func (t *Tree) Score(sample []float64) (float64, error) {
	node := t.Root
	for !node.IsLeaf() {
		var next *Node
		for _, child := range node.Children {
			ok, err := evaluate(child.Predicate, sample)
			if err != nil {
				return 0, errors.Wrapf(err, "tree %d node %d", t.Index, child.ID)
			}
			if ok {
				next = child
				break
			}
		}
		if next == nil {
			return 0, errors.Wrapf(ErrNoTrueChild, "tree %d node %d", t.Index, node.ID)
		}
		node = next
	}
	return *node.Score, nil
}

func evaluate(p Predicate, sample []float64) (bool, error) {
	feature := p.Feature()
	if feature < 0 {
		return p.SatisfiedBy(0), nil
	}
	if feature >= len(sample) {
		return false, fmt.Errorf("sample has %d values, predicate %q needs feature %d", len(sample), p, feature)
	}
	return p.SatisfiedBy(sample[feature]), nil
}

//Predict returns the baseline plus the scores of every tree for one sample.
func (e *Ensemble) Predict(sample []float64) (float64, error) {
	result := e.Baseline
	for _, t := range e.Trees {
		s, err := t.Score(sample)
		if err != nil {
			return 0, err
		}
		result += s
	}
	return result, nil
}

//PredictValue scores every row of features. The result is a column with one prediction per row.
//treesNumber limits the sum to the first trees of the ensemble.
func (e *Ensemble) PredictValue(features *mat.Dense, treesNumber *int) (*mat.Dense, error) {
	h, w := features.Dims()
	if h == 0 {
		return nil, errors.New("no rows to predict")
	}
	if w != e.Catalog.NumFeatures() {
		return nil, fmt.Errorf("features have %d columns, the model has %d features", w, e.Catalog.NumFeatures())
	}

	n := len(e.Trees)
	if treesNumber != nil {
		if *treesNumber <= 0 || *treesNumber > n {
			return nil, fmt.Errorf("trees number %d is outside [1, %d]", *treesNumber, n)
		}
		n = *treesNumber
	}

	prediction := mat.NewDense(h, 1, nil)
	sample := make([]float64, w)
	for p := 0; p < h; p++ {
		mat.Row(sample, p, features)
		s := e.Baseline
		for _, t := range e.Trees[:n] {
			delta, err := t.Score(sample)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", p)
			}
			s += delta
		}
		prediction.Set(p, 0, s)
	}
	return prediction, nil
}
