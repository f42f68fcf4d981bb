package rawmodel

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

//Kind is the element type of a Value.
type Kind int

const (
	Null Kind = iota
	Real
	Int
	String
	List
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Real:
		return "real"
	case Int:
		return "int"
	case String:
		return "string"
	case List:
		return "list"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

//Reader gives access to the named top level fields of a raw model.
type Reader interface {
	Field(name string) (*Value, error)
}

//Value is one field of the raw model: a typed sequence of reals, integers or strings,
//or a list of nested values. Lists may carry element names.
type Value struct {
	kind    Kind
	reals   []float64
	ints    []int
	strs    []string
	items   []*Value
	names   []string
	context string
}

//Reals creates a real vector.
func Reals(values ...float64) *Value {
	return &Value{kind: Real, reals: values}
}

//Ints creates an integer vector.
func Ints(values ...int) *Value {
	return &Value{kind: Int, ints: values}
}

//Strings creates a string vector.
func Strings(values ...string) *Value {
	return &Value{kind: String, strs: values}
}

//NewList creates an unnamed list.
func NewList(items ...*Value) *Value {
	return &Value{kind: List, items: items}
}

//NewNamedList creates a list whose elements can be looked up by name.
func NewNamedList(names []string, items []*Value) (*Value, error) {
	if len(names) != len(items) {
		return nil, fmt.Errorf("list has %d names for %d items", len(names), len(items))
	}
	return &Value{kind: List, items: items, names: names}, nil
}

//Kind returns the element type.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

//Len returns the number of elements.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case Real:
		return len(v.reals)
	case Int:
		return len(v.ints)
	case String:
		return len(v.strs)
	case List:
		return len(v.items)
	}
	return 0
}

//Names returns the element names of a named list, nil otherwise.
func (v *Value) Names() []string {
	if v == nil {
		return nil
	}
	return v.names
}

func (v *Value) describe() string {
	if v.context == "" {
		return v.kind.String() + " value"
	}
	return v.context
}

func (v *Value) checkIndex(i int) error {
	if i < 0 || i >= v.Len() {
		return fmt.Errorf("%s: index %d out of range [0, %d)", v.describe(), i, v.Len())
	}
	return nil
}

//RealAt returns element i as a real. Integer vectors are converted.
func (v *Value) RealAt(i int) (float64, error) {
	if err := v.checkIndex(i); err != nil {
		return 0, err
	}
	switch v.kind {
	case Real:
		return v.reals[i], nil
	case Int:
		return float64(v.ints[i]), nil
	}
	return 0, fmt.Errorf("%s: expected real elements, got %s", v.describe(), v.kind)
}

//IntAt returns element i as an integer. Real vectors are accepted when the element is integral.
func (v *Value) IntAt(i int) (int, error) {
	if err := v.checkIndex(i); err != nil {
		return 0, err
	}
	switch v.kind {
	case Int:
		return v.ints[i], nil
	case Real:
		r := v.reals[i]
		if math.IsNaN(r) || math.IsInf(r, 0) || r != math.Trunc(r) {
			return 0, fmt.Errorf("%s: element %d = %v is not integral", v.describe(), i, r)
		}
		return int(r), nil
	}
	return 0, fmt.Errorf("%s: expected integer elements, got %s", v.describe(), v.kind)
}

//StringAt returns element i as a string. Numeric vectors are formatted in shortest form.
func (v *Value) StringAt(i int) (string, error) {
	if err := v.checkIndex(i); err != nil {
		return "", err
	}
	switch v.kind {
	case String:
		return v.strs[i], nil
	case Int:
		return strconv.Itoa(v.ints[i]), nil
	case Real:
		return strconv.FormatFloat(v.reals[i], 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%s: expected string elements, got %s", v.describe(), v.kind)
}

//Item returns element i of a list.
func (v *Value) Item(i int) (*Value, error) {
	if v.Kind() != List {
		return nil, fmt.Errorf("%s: expected list, got %s", v.describe(), v.Kind())
	}
	if err := v.checkIndex(i); err != nil {
		return nil, err
	}
	return v.items[i], nil
}

//Elem returns the list element with the given name.
func (v *Value) Elem(name string) (*Value, error) {
	if v.Kind() != List {
		return nil, fmt.Errorf("%s: expected list, got %s", v.describe(), v.Kind())
	}
	for i, n := range v.names {
		if n == name {
			return v.items[i], nil
		}
	}
	return nil, fmt.Errorf("%s: no element named %q", v.describe(), name)
}

//Field makes a named list usable as a Reader.
func (v *Value) Field(name string) (*Value, error) {
	return v.Elem(name)
}

//Reals returns all the elements as reals.
func (v *Value) Reals() ([]float64, error) {
	result := make([]float64, v.Len())
	for i := range result {
		r, err := v.RealAt(i)
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

//Ints returns all the elements as integers.
func (v *Value) Ints() ([]int, error) {
	result := make([]int, v.Len())
	for i := range result {
		n, err := v.IntAt(i)
		if err != nil {
			return nil, err
		}
		result[i] = n
	}
	return result, nil
}

//Strings returns all the elements as strings.
func (v *Value) Strings() ([]string, error) {
	result := make([]string, v.Len())
	for i := range result {
		s, err := v.StringAt(i)
		if err != nil {
			return nil, err
		}
		result[i] = s
	}
	return result, nil
}

//withContext labels the value and its children so that accessor errors name the field.
func (v *Value) withContext(context string) *Value {
	if v == nil {
		return nil
	}
	v.context = context
	for i, item := range v.items {
		label := fmt.Sprintf("%s[%d]", context, i)
		if i < len(v.names) && v.names[i] != "" {
			label = fmt.Sprintf("%s$%s", context, v.names[i])
		}
		item.withContext(label)
	}
	return v
}

//Named pairs a field value with its name; it is the building block of in-memory models.
type Named struct {
	Name  string
	Value *Value
}

//NewModel builds an in-memory Reader from named fields.
func NewModel(fields ...Named) (*Value, error) {
	names := make([]string, len(fields))
	items := make([]*Value, len(fields))
	for i, f := range fields {
		if f.Value == nil {
			return nil, errors.Errorf("field %q has no value", f.Name)
		}
		names[i] = f.Name
		items[i] = f.Value
	}
	model, err := NewNamedList(names, items)
	if err != nil {
		return nil, err
	}
	model.context = "raw model"
	for i, item := range model.items {
		item.withContext(names[i])
	}
	return model, nil
}
