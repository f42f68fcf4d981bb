package gbl

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

//Predicate decides whether a sample follows a branch. Feature values are reals; NaN means missing
//and a categorical value is the index of its level in the field domain.
type Predicate interface {
	//Field returns the referenced field name, empty when no field is referenced.
	Field() string
	//Feature returns the referenced feature index, -1 when no field is referenced.
	Feature() int
	SatisfiedBy(value float64) bool
	String() string
}

//TruePredicate holds for every sample.
type TruePredicate struct{}

func (TruePredicate) Field() string { return "" }
func (TruePredicate) Feature() int { return -1 }
func (TruePredicate) SatisfiedBy(_ float64) bool { return true }
func (TruePredicate) String() string { return "true" }

//Operator of a SimplePredicate.
type Operator int

const (
	IsMissing Operator = iota
	LessThan
	GreaterOrEqual
)

func (o Operator) String() string {
	switch o {
	case IsMissing:
		return "isMissing"
	case LessThan:
		return "<"
	case GreaterOrEqual:
		return ">="
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

//SimplePredicate compares a continuous field with a threshold or tests it for a missing value.
type SimplePredicate struct {
	FieldName    string
	FeatureIndex int
	Operator     Operator
	Value        float64
}

func newMissingPredicate(field string, feature int) *SimplePredicate {
	return &SimplePredicate{FieldName: field, FeatureIndex: feature, Operator: IsMissing}
}

func (p *SimplePredicate) Field() string { return p.FieldName }
func (p *SimplePredicate) Feature() int  { return p.FeatureIndex }

func (p *SimplePredicate) SatisfiedBy(value float64) bool {
	missing := math.IsNaN(value)
	switch p.Operator {
	case IsMissing:
		return missing
	case LessThan:
		return !missing && value < p.Value
	case GreaterOrEqual:
		return !missing && value >= p.Value
	}
	return false
}

func (p *SimplePredicate) String() string {
	if p.Operator == IsMissing {
		return fmt.Sprintf("%s is missing", p.FieldName)
	}
	return fmt.Sprintf("%s %s %g", p.FieldName, p.Operator, p.Value)
}

//SimpleSetPredicate holds when a categorical field takes one of the listed levels.
//Values are the level labels and Levels their indices in the field domain, both in domain order.
type SimpleSetPredicate struct {
	FieldName    string
	FeatureIndex int
	Values       []string
	Levels       []int
}

func (p *SimpleSetPredicate) Field() string { return p.FieldName }
func (p *SimpleSetPredicate) Feature() int  { return p.FeatureIndex }

func (p *SimpleSetPredicate) SatisfiedBy(value float64) bool {
	if math.IsNaN(value) || value != math.Trunc(value) {
		return false
	}
	return slices.Contains(p.Levels, int(value))
}

func (p *SimpleSetPredicate) String() string {
	return fmt.Sprintf("%s in {%s}", p.FieldName, strings.Join(p.Values, ", "))
}
