//Package pmml is a minimal document object model of PMML 4.2, limited to the elements
//needed to express a sum-aggregated ensemble of regression trees.
package pmml

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

const (
	Version   = "4.2"
	Namespace = "http://www.dmg.org/PMML-4_2"
)

type OpType string

const (
	OpTypeContinuous  OpType = "continuous"
	OpTypeCategorical OpType = "categorical"
)

type DataType string

const (
	DataTypeDouble  DataType = "double"
	DataTypeInteger DataType = "integer"
	DataTypeString  DataType = "string"
)

type FieldUsageType string

const (
	UsageActive FieldUsageType = "active"
	UsageTarget FieldUsageType = "target"
)

type Operator string

const (
	OperatorIsMissing      Operator = "isMissing"
	OperatorLessThan       Operator = "lessThan"
	OperatorGreaterOrEqual Operator = "greaterOrEqual"
)

//PMML is the document root.
type PMML struct {
	XMLName        xml.Name       `xml:"PMML"`
	Xmlns          string         `xml:"xmlns,attr"`
	Version        string         `xml:"version,attr"`
	Header         Header         `xml:"Header"`
	DataDictionary DataDictionary `xml:"DataDictionary"`
	MiningModel    *MiningModel   `xml:"MiningModel,omitempty"`
}

type Header struct {
	Application *Application `xml:"Application,omitempty"`
}

type Application struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr,omitempty"`
}

type DataDictionary struct {
	NumberOfFields int          `xml:"numberOfFields,attr"`
	DataFields     []*DataField `xml:"DataField"`
}

type DataField struct {
	Name     string   `xml:"name,attr"`
	OpType   OpType   `xml:"optype,attr"`
	DataType DataType `xml:"dataType,attr"`
	Values   []Value  `xml:"Value,omitempty"`
}

type Value struct {
	Value string `xml:"value,attr"`
}

type MiningSchema struct {
	MiningFields []*MiningField `xml:"MiningField"`
}

type MiningField struct {
	Name      string         `xml:"name,attr"`
	UsageType FieldUsageType `xml:"usageType,attr,omitempty"`
}

type Targets struct {
	Targets []*Target `xml:"Target"`
}

//Target rescales the raw model output: value*RescaleFactor + RescaleConstant.
type Target struct {
	Field           string   `xml:"field,attr"`
	RescaleFactor   *float64 `xml:"rescaleFactor,attr,omitempty"`
	RescaleConstant *float64 `xml:"rescaleConstant,attr,omitempty"`
}

type MiningModel struct {
	FunctionName string        `xml:"functionName,attr"`
	MiningSchema *MiningSchema `xml:"MiningSchema"`
	Targets      *Targets      `xml:"Targets,omitempty"`
	Segmentation *Segmentation `xml:"Segmentation"`
}

type Segmentation struct {
	MultipleModelMethod string     `xml:"multipleModelMethod,attr"`
	Segments            []*Segment `xml:"Segment"`
}

type Segment struct {
	ID        string     `xml:"id,attr"`
	Predicate Predicate  `xml:",any"`
	TreeModel *TreeModel `xml:"TreeModel"`
}

type TreeModel struct {
	FunctionName        string        `xml:"functionName,attr"`
	SplitCharacteristic string        `xml:"splitCharacteristic,attr,omitempty"`
	MiningSchema        *MiningSchema `xml:"MiningSchema"`
	Node                *Node         `xml:"Node"`
}

type Node struct {
	ID          string    `xml:"id,attr,omitempty"`
	Score       string    `xml:"score,attr,omitempty"`
	RecordCount string    `xml:"recordCount,attr,omitempty"`
	Predicate   Predicate `xml:",any"`
	Nodes       []*Node   `xml:"Node"`
}

//Predicate is one of True, SimplePredicate or SimpleSetPredicate, marshalled as its own element.
type Predicate interface {
	isPredicate()
}

type True struct {
	XMLName xml.Name `xml:"True"`
}

type SimplePredicate struct {
	XMLName  xml.Name `xml:"SimplePredicate"`
	Field    string   `xml:"field,attr"`
	Operator Operator `xml:"operator,attr"`
	Value    string   `xml:"value,attr,omitempty"`
}

type SimpleSetPredicate struct {
	XMLName         xml.Name `xml:"SimpleSetPredicate"`
	Field           string   `xml:"field,attr"`
	BooleanOperator string   `xml:"booleanOperator,attr"`
	Array           Array    `xml:"Array"`
}

type Array struct {
	Type  string `xml:"type,attr"`
	N     int    `xml:"n,attr"`
	Value string `xml:",chardata"`
}

func (True) isPredicate()               {}
func (SimplePredicate) isPredicate()    {}
func (SimpleSetPredicate) isPredicate() {}

//NewArray creates an Array of the given element values, typed after the field data type.
func NewArray(dataType DataType, values []string) Array {
	arrayType := "string"
	switch dataType {
	case DataTypeInteger:
		arrayType = "int"
	case DataTypeDouble:
		arrayType = "real"
	}
	return Array{Type: arrayType, N: len(values), Value: FormatArray(values)}
}

//FormatArray joins array elements with spaces, quoting the elements that contain
//whitespace or quotes.
func FormatArray(values []string) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if v == "" || strings.ContainsAny(v, " \t\r\n\"") {
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(v, `"`, `\"`))
			sb.WriteByte('"')
		} else {
			sb.WriteString(v)
		}
	}
	return sb.String()
}

//FormatValue formats a double in its shortest round-trip form.
func FormatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

//Write writes the document with an XML declaration.
func Write(w io.Writer, doc *PMML) error {
	if doc.Xmlns == "" {
		doc.Xmlns = Namespace
	}
	if doc.Version == "" {
		doc.Version = Version
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
