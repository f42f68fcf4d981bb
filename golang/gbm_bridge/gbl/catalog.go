package gbl

import (
	"fmt"
	"strconv"

	mapset "github.com/deckarep/golang-set"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/pmml"
	"golang.org/x/exp/slices"
)

//OpType is the semantic type of a field.
type OpType int

const (
	Unsupported OpType = iota - 1
	Continuous
	Categorical
)

func (t OpType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Categorical:
		return "categorical"
	}
	return fmt.Sprintf("unsupported(%d)", int(t))
}

//Field describes one column of the model. Values is the ordered domain of a categorical field.
type Field struct {
	Name     string
	OpType   OpType
	DataType pmml.DataType
	Values   []string
}

//FieldCatalog is the immutable ordered list of fields: the target at index 0, then the features.
type FieldCatalog struct {
	fields []Field
	index  map[string]int
}

//NewFieldCatalog validates and copies the field metadata. levels[i] is the domain of feature i
//and is only consulted for categorical features.
func NewFieldCatalog(target string, names []string, opTypes []OpType, levels [][]string) (*FieldCatalog, error) {
	if len(opTypes) != len(names) {
		return nil, configurationErrorf("%d type flags for %d features", len(opTypes), len(names))
	}

	catalog := &FieldCatalog{
		fields: make([]Field, 0, len(names)+1),
		index:  make(map[string]int, len(names)+1),
	}
	if err := catalog.add(Field{Name: target, OpType: Continuous, DataType: pmml.DataTypeDouble}); err != nil {
		return nil, err
	}

	for i, name := range names {
		field := Field{Name: name, OpType: opTypes[i], DataType: pmml.DataTypeDouble}
		if field.OpType == Categorical {
			if i >= len(levels) || len(levels[i]) == 0 {
				return nil, configurationErrorf("categorical feature %q has an empty domain", name)
			}
			field.Values = slices.Clone(levels[i])
			field.DataType = refineDataType(field.Values)
		}
		if err := catalog.add(field); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (c *FieldCatalog) add(field Field) error {
	if field.Name == "" {
		return configurationErrorf("field %d has no name", len(c.fields))
	}
	if _, ok := c.index[field.Name]; ok {
		return configurationErrorf("duplicate field name %q", field.Name)
	}
	c.index[field.Name] = len(c.fields)
	c.fields = append(c.fields, field)
	return nil
}

//refineDataType narrows a categorical domain to integer or double when every level parses as such.
func refineDataType(values []string) pmml.DataType {
	integers, doubles := true, true
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			integers = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			doubles = false
		}
	}
	switch {
	case integers:
		return pmml.DataTypeInteger
	case doubles:
		return pmml.DataTypeDouble
	}
	return pmml.DataTypeString
}

func (f Field) clone() Field {
	f.Values = slices.Clone(f.Values)
	return f
}

//Target returns the target field.
func (c *FieldCatalog) Target() Field {
	return c.fields[0].clone()
}

//NumFeatures returns the number of features.
func (c *FieldCatalog) NumFeatures() int {
	return len(c.fields) - 1
}

//Feature returns feature i, which is field i+1 of the catalog.
func (c *FieldCatalog) Feature(i int) (Field, bool) {
	if i < 0 || i >= c.NumFeatures() {
		return Field{}, false
	}
	return c.fields[i+1].clone(), true
}

//Fields returns a copy of all the fields in catalog order.
func (c *FieldCatalog) Fields() []Field {
	result := make([]Field, len(c.fields))
	for i, f := range c.fields {
		result[i] = f.clone()
	}
	return result
}

//Len returns the number of fields including the target.
func (c *FieldCatalog) Len() int {
	return len(c.fields)
}

//Index returns the catalog index of the named field.
func (c *FieldCatalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

//Select returns the names of the given set that belong to the catalog, in catalog order.
func (c *FieldCatalog) Select(names mapset.Set) []string {
	result := make([]string, 0, names.Cardinality())
	for _, f := range c.fields {
		if names.Contains(f.Name) {
			result = append(result, f.Name)
		}
	}
	return result
}
