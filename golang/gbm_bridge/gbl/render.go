package gbl

import (
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//GraphDescription returns the label of a node for tree rendering: the predicate leading to the
//node, then the score of a leaf or the record count of a split.
func (n *Node) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id:", n.ID+1))
	if n.Predicate != nil {
		sb.WriteString(fmt.Sprintln(n.Predicate.String()))
	}
	if n.RecordCount != nil {
		sb.WriteString(fmt.Sprintln("#", *n.RecordCount))
	}
	if n.Score != nil {
		sb.WriteString(fmt.Sprintf("score: %6.5f", *n.Score))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func recurrentDraw(g *cgraph.Graph, node *Node, parentNode *cgraph.Node, counter *int) error {
	*counter++
	currentNode, err := g.CreateNode(fmt.Sprintf("n%d_%d", node.ID, *counter))
	if err != nil {
		return err
	}

	if parentNode != nil {
		if _, err := g.CreateEdge("", parentNode, currentNode); err != nil {
			return err
		}
	}

	currentNode.Set("label", node.GraphDescription())
	if node.IsLeaf() {
		currentNode.Set("shape", "box")
		return nil
	}
	for _, child := range node.Children {
		if err := recurrentDraw(g, child, currentNode, counter); err != nil {
			return err
		}
	}
	return nil
}

//DrawGraph lays the tree out as a graphviz graph. The caller closes both returned values.
func (t *Tree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		_ = graphViz.Close()
		return nil, nil, err
	}

	counter := 0
	if err := recurrentDraw(graph, t.Root, nil, &counter); err != nil {
		_ = graph.Close()
		_ = graphViz.Close()
		return nil, nil, errors.Wrapf(err, "drawing tree %d", t.Index)
	}
	return graphViz, graph, nil
}

var graphvizFormats = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
}

//RenderTrees writes one picture per tree into picturesDirectory, named dumpPrefix_00000.figureType.
func (e *Ensemble) RenderTrees(dumpPrefix, figureType, picturesDirectory string) error {
	graphvizType, ok := graphvizFormats[figureType]
	if !ok {
		return errors.Errorf("unknown figure type %q, expected png, svg or jpg", figureType)
	}

	for graphInd, currentTree := range e.Trees {
		filename := path.Join(picturesDirectory, fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType))
		if err := renderTree(currentTree, graphvizType, filename); err != nil {
			return err
		}
		zap.S().Debugf("tree %d rendered to %s", graphInd+1, filename)
	}
	return nil
}

func renderTree(tree *Tree, format graphviz.Format, filename string) error {
	graphViz, graph, err := tree.DrawGraph()
	if err != nil {
		return err
	}
	defer func() {
		_ = graph.Close()
		_ = graphViz.Close()
	}()
	return errors.Wrapf(graphViz.RenderFilename(graph, format, filename), "rendering %s", filename)
}
