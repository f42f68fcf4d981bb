package gbl

import (
	"strconv"

	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/pmml"
)

const (
	functionRegression  = "regression"
	multipleModelSum    = "sum"
	splitMulti          = "multiSplit"
	booleanOperatorIsIn = "isIn"
)

//EncodePMML builds the PMML document of the ensemble.
func (e *Ensemble) EncodePMML(app pmml.Application) *pmml.PMML {
	doc := &pmml.PMML{
		Xmlns:   pmml.Namespace,
		Version: pmml.Version,
		Header:  pmml.Header{Application: &app},
	}

	for _, f := range e.Catalog.fields {
		doc.DataDictionary.DataFields = append(doc.DataDictionary.DataFields, encodeDataField(f))
	}
	doc.DataDictionary.NumberOfFields = len(doc.DataDictionary.DataFields)

	target := e.Catalog.fields[0].Name
	schema := &pmml.MiningSchema{
		MiningFields: []*pmml.MiningField{{Name: target, UsageType: pmml.UsageTarget}},
	}
	for _, name := range e.Catalog.Select(e.ReferencedFields()) {
		schema.MiningFields = append(schema.MiningFields, &pmml.MiningField{Name: name, UsageType: pmml.UsageActive})
	}

	model := &pmml.MiningModel{
		FunctionName: functionRegression,
		MiningSchema: schema,
		Segmentation: &pmml.Segmentation{MultipleModelMethod: multipleModelSum},
	}
	if e.Baseline != 0 {
		baseline := e.Baseline
		model.Targets = &pmml.Targets{Targets: []*pmml.Target{{Field: target, RescaleConstant: &baseline}}}
	}

	for i, t := range e.Trees {
		model.Segmentation.Segments = append(model.Segmentation.Segments, &pmml.Segment{
			ID:        strconv.Itoa(i + 1),
			Predicate: pmml.True{},
			TreeModel: e.encodeTreeModel(t),
		})
	}
	doc.MiningModel = model
	return doc
}

func encodeDataField(f Field) *pmml.DataField {
	dataField := &pmml.DataField{Name: f.Name, OpType: pmml.OpTypeContinuous, DataType: f.DataType}
	if f.OpType == Categorical {
		dataField.OpType = pmml.OpTypeCategorical
		for _, v := range f.Values {
			dataField.Values = append(dataField.Values, pmml.Value{Value: v})
		}
	}
	return dataField
}

func (e *Ensemble) encodeTreeModel(t *Tree) *pmml.TreeModel {
	schema := &pmml.MiningSchema{}
	for _, name := range t.ActiveFields {
		schema.MiningFields = append(schema.MiningFields, &pmml.MiningField{Name: name})
	}
	return &pmml.TreeModel{
		FunctionName:        functionRegression,
		SplitCharacteristic: splitMulti,
		MiningSchema:        schema,
		Node:                e.encodeNode(t.Root),
	}
}

func (e *Ensemble) encodeNode(node *Node) *pmml.Node {
	result := &pmml.Node{
		ID:        strconv.Itoa(node.ID + 1),
		Predicate: e.encodePredicate(node.Predicate),
	}
	if node.Score != nil {
		result.Score = pmml.FormatValue(*node.Score)
	}
	if node.RecordCount != nil {
		result.RecordCount = pmml.FormatValue(*node.RecordCount)
	}
	for _, child := range node.Children {
		result.Nodes = append(result.Nodes, e.encodeNode(child))
	}
	return result
}

func (e *Ensemble) encodePredicate(p Predicate) pmml.Predicate {
	switch p := p.(type) {
	case *SimplePredicate:
		result := pmml.SimplePredicate{Field: p.FieldName}
		switch p.Operator {
		case IsMissing:
			result.Operator = pmml.OperatorIsMissing
		case LessThan:
			result.Operator = pmml.OperatorLessThan
			result.Value = pmml.FormatValue(p.Value)
		case GreaterOrEqual:
			result.Operator = pmml.OperatorGreaterOrEqual
			result.Value = pmml.FormatValue(p.Value)
		}
		return result
	case *SimpleSetPredicate:
		dataType := pmml.DataTypeString
		if f, ok := e.Catalog.Feature(p.FeatureIndex); ok {
			dataType = f.DataType
		}
		return pmml.SimpleSetPredicate{
			Field:           p.FieldName,
			BooleanOperator: booleanOperatorIsIn,
			Array:           pmml.NewArray(dataType, p.Values),
		}
	}
	return pmml.True{}
}
