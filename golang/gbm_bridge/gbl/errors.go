package gbl

import (
	"fmt"

	"github.com/pkg/errors"
)

//ConfigurationError reports inconsistent model metadata found before any tree is decoded.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configurationErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

//MalformedTreeError names the tree and the raw node index that can not be decoded.
//Node is -1 when the problem concerns the tree as a whole.
type MalformedTreeError struct {
	Tree   int
	Node   int
	Reason string
}

func (e *MalformedTreeError) Error() string {
	if e.Node < 0 {
		return fmt.Sprintf("malformed tree %d: %s", e.Tree, e.Reason)
	}
	return fmt.Sprintf("malformed tree %d, node %d: %s", e.Tree, e.Node, e.Reason)
}

//UnsupportedFieldTypeError is raised when a split uses a field that is neither continuous nor categorical.
type UnsupportedFieldTypeError struct {
	Tree   int
	Node   int
	Field  string
	OpType OpType
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("tree %d, node %d: field %q has unsupported type %s", e.Tree, e.Node, e.Field, e.OpType)
}

var (
	//ErrNoTrueChild is returned by the scorer when no child predicate of a split node holds.
	ErrNoTrueChild = errors.New("no child predicate is satisfied")
	//ErrEmptyEnsemble is returned when an ensemble is assembled from no trees.
	ErrEmptyEnsemble = errors.New("ensemble requires at least one tree")
)
