package gbl

import (
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
)

//Tree is one decoded tree of an ensemble with the fields it references in catalog order.
type Tree struct {
	Index        int
	Root         *Node
	ActiveFields []string
}

//NewTree wraps a decoded root and derives its pruned field list.
func NewTree(catalog *FieldCatalog, index int, root *Node) *Tree {
	return &Tree{
		Index:        index,
		Root:         root,
		ActiveFields: catalog.Select(CollectFieldReferences(root)),
	}
}

//Ensemble is a sum of trees shifted by a baseline.
type Ensemble struct {
	Catalog  *FieldCatalog
	Trees    []*Tree
	Baseline float64
}

//AssembleEnsemble composes decoded trees sharing one catalog. The trees are taken as they are.
func AssembleEnsemble(catalog *FieldCatalog, trees []*Tree, baseline float64) (*Ensemble, error) {
	if len(trees) == 0 {
		return nil, ErrEmptyEnsemble
	}
	if catalog == nil {
		return nil, errors.New("ensemble requires a field catalog")
	}
	return &Ensemble{
		Catalog:  catalog,
		Trees:    append([]*Tree(nil), trees...),
		Baseline: baseline,
	}, nil
}

//ReferencedFields returns the names of the fields any tree of the ensemble references.
func (e *Ensemble) ReferencedFields() mapset.Set {
	roots := make([]*Node, len(e.Trees))
	for i, t := range e.Trees {
		roots[i] = t.Root
	}
	return CollectFieldReferences(roots...)
}
