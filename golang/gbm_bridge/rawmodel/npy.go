package rawmodel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

//TreeVectorNames are the per-node vectors of one gbm tree, in their positional order.
var TreeVectorNames = []string{
	"SplitVar",
	"SplitCodePred",
	"LeftNode",
	"RightNode",
	"MissingNode",
	"ErrorReduction",
	"Weight",
	"Prediction",
}

//File names inside a npy model directory.
const (
	MetaFileName        = "meta.yaml"
	TreesFileName       = "trees.npy"
	TreeSizesFileName   = "tree_sizes.npy"
	SplitsFileName      = "c.splits.npy"
	SplitSizesFileName  = "c.splits_sizes.npy"
	treesFieldName      = "trees"
	splitsFieldName     = "c.splits"
	numberOfTreeVectors = 8
)

//ReadNpy reads the content of npy file into a matrix.
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading npy header of %s", fileName)
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, errors.Wrapf(err, "reading npy data of %s", fileName)
	}
	return denseMat, nil
}

//WriteNpy writes a matrix as a npy file.
func WriteNpy(fileName string, m mat.Matrix) error {
	dst, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := npyio.Write(dst, m); err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, "writing npy file %s", fileName)
	}
	return dst.Close()
}

//OpenNpyDir reads a raw model stored as a directory: string and scalar fields in meta.yaml,
//the forest in trees.npy as a (trees*8) x maxNodes float64 matrix padded on the right,
//the number of nodes of each tree in tree_sizes.npy and the categorical split table
//in c.splits.npy with its row lengths in c.splits_sizes.npy. The split table files are
//optional when the model has no categorical splits.
func OpenNpyDir(dir string) (*Value, error) {
	zap.S().Debugf("reading npy model directory <%s>", dir)
	meta, err := OpenDocument(filepath.Join(dir, MetaFileName))
	if err != nil {
		return nil, err
	}

	trees, err := readForest(filepath.Join(dir, TreesFileName), filepath.Join(dir, TreeSizesFileName))
	if err != nil {
		return nil, err
	}

	splits := NewList()
	splitsPath := filepath.Join(dir, SplitsFileName)
	if _, err := os.Stat(splitsPath); err == nil {
		splits, err = readRaggedRows(splitsPath, filepath.Join(dir, SplitSizesFileName))
		if err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var fields []Named
	for i, name := range meta.names {
		if name == treesFieldName || name == splitsFieldName {
			continue
		}
		fields = append(fields, Named{Name: name, Value: meta.items[i]})
	}
	fields = append(fields, Named{Name: treesFieldName, Value: trees}, Named{Name: splitsFieldName, Value: splits})
	return NewModel(fields...)
}

func readSizes(fileName string, expected int) ([]int, error) {
	sizes, err := ReadNpy(fileName)
	if err != nil {
		return nil, err
	}
	h, w := sizes.Dims()
	if h*w != expected {
		return nil, fmt.Errorf("%s holds %d sizes, expected %d", fileName, h*w, expected)
	}
	result := make([]int, 0, expected)
	for p := 0; p < h; p++ {
		for q := 0; q < w; q++ {
			v := sizes.At(p, q)
			if v < 0 || v != float64(int(v)) {
				return nil, fmt.Errorf("%s: invalid size %v at %d", fileName, v, len(result))
			}
			result = append(result, int(v))
		}
	}
	return result, nil
}

func readForest(treesFile, sizesFile string) (*Value, error) {
	flat, err := ReadNpy(treesFile)
	if err != nil {
		return nil, err
	}
	h, w := flat.Dims()
	if h%numberOfTreeVectors != 0 {
		return nil, fmt.Errorf("%s has %d rows, not a multiple of %d", treesFile, h, numberOfTreeVectors)
	}
	numberOfTrees := h / numberOfTreeVectors
	sizes, err := readSizes(sizesFile, numberOfTrees)
	if err != nil {
		return nil, err
	}
	if numberOfTrees == 0 || w == 0 {
		return NewList(), nil
	}

	forest := tensor.New(
		tensor.WithShape(numberOfTrees, numberOfTreeVectors, w),
		tensor.WithBacking(mat.DenseCopyOf(flat).RawMatrix().Data),
	)

	trees := make([]*Value, numberOfTrees)
	for t := 0; t < numberOfTrees; t++ {
		if sizes[t] > w {
			return nil, fmt.Errorf("tree %d has %d nodes but %s is only %d wide", t, sizes[t], treesFile, w)
		}
		vectors := make([]*Value, numberOfTreeVectors)
		for k := range vectors {
			data := make([]float64, sizes[t])
			for n := range data {
				element, err := forest.At(t, k, n)
				if err != nil {
					return nil, errors.Wrapf(err, "tree %d vector %s node %d", t, TreeVectorNames[k], n)
				}
				data[n] = element.(float64)
			}
			vectors[k] = Reals(data...)
		}
		tree, err := NewNamedList(TreeVectorNames, vectors)
		if err != nil {
			return nil, err
		}
		trees[t] = tree
	}
	return NewList(trees...), nil
}

func readRaggedRows(rowsFile, sizesFile string) (*Value, error) {
	table, err := ReadNpy(rowsFile)
	if err != nil {
		return nil, err
	}
	h, w := table.Dims()
	sizes, err := readSizes(sizesFile, h)
	if err != nil {
		return nil, err
	}
	rows := make([]*Value, h)
	for p := 0; p < h; p++ {
		if sizes[p] > w {
			return nil, fmt.Errorf("row %d of %s has %d elements but the file is only %d wide", p, rowsFile, sizes[p], w)
		}
		row := make([]float64, sizes[p])
		copy(row, table.RawRowView(p)[:sizes[p]])
		rows[p] = Reals(row...)
	}
	return NewList(rows...), nil
}

//Open picks the backend by path: directories are npy models, files are YAML or JSON documents.
func Open(path string) (*Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenNpyDir(path)
	}
	return OpenDocument(path)
}
