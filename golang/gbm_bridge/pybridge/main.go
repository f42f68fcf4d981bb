// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/gbl"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/pmml"
	"github.com/tarstars/gbm_pmml_bridge/golang/gbm_bridge/rawmodel"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	applicationName    = "gbm_bridge"
	applicationVersion = "0.1.0"
)

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	ensembles         = make(map[uint64]*gbl.Ensemble)

	lastErrorMu sync.Mutex
	lastError   string

	logSilenceOnce sync.Once
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func storeEnsemble(e *gbl.Ensemble) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	ensembles[handle] = e
	nextHandle++
	return handle
}

func fetchEnsemble(handle uint64) (*gbl.Ensemble, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	ensemble, ok := ensembles[handle]
	if !ok {
		return nil, errors.New("invalid model handle")
	}
	return ensemble, nil
}

//export FreeModel
func FreeModel(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(ensembles, uint64(handle))
}

func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r, c := int(rows), int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.Errorf("invalid matrix dimensions %dx%d", r, c)
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty matrix")
	}
	data := make([]float64, r*c)
	copy(data, unsafe.Slice((*float64)(unsafe.Pointer(ptr)), r*c))
	return mat.NewDense(r, c, data), nil
}

//export LoadModel
func LoadModel(path *C.char, threadsNum C.int) C.ulonglong {
	setLastError(nil)
	logSilenceOnce.Do(func() {
		zap.ReplaceGlobals(zap.NewNop())
	})

	raw, err := rawmodel.Open(C.GoString(path))
	if err != nil {
		setLastError(err)
		return 0
	}
	gbm, err := gbl.ReadGBM(raw)
	if err != nil {
		setLastError(err)
		return 0
	}
	threads := int(threadsNum)
	if threads < 1 {
		threads = 1
	}
	ensemble, err := gbl.Convert(gbm, gbl.ConvertParams{ThreadsNum: threads})
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeEnsemble(ensemble))
}

//export SavePMML
func SavePMML(handle C.ulonglong, path *C.char) C.int {
	setLastError(nil)
	ensemble, err := fetchEnsemble(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	dst, err := os.Create(C.GoString(path))
	if err != nil {
		setLastError(err)
		return 2
	}
	doc := ensemble.EncodePMML(pmml.Application{Name: applicationName, Version: applicationVersion})
	if err := pmml.Write(dst, doc); err != nil {
		_ = dst.Close()
		setLastError(err)
		return 3
	}
	if err := dst.Close(); err != nil {
		setLastError(err)
		return 3
	}
	return 0
}

//export Predict
func Predict(
	handle C.ulonglong,
	featuresPtr *C.double,
	rows C.int,
	cols C.int,
	outputPtr *C.double,
	treeLimit C.int,
) C.int {
	setLastError(nil)
	ensemble, err := fetchEnsemble(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}

	features, err := buildDense(featuresPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 2
	}

	var limit *int
	if treeLimit > 0 {
		l := int(treeLimit)
		limit = &l
	}

	prediction, err := ensemble.PredictValue(features, limit)
	if err != nil {
		setLastError(err)
		return 3
	}

	if outputPtr == nil {
		setLastError(errors.New("null output pointer"))
		return 4
	}
	copy(unsafe.Slice((*float64)(unsafe.Pointer(outputPtr)), int(rows)), prediction.RawMatrix().Data)
	return 0
}

//export RenderTrees
func RenderTrees(handle C.ulonglong, prefix, figureType, directory *C.char) C.int {
	setLastError(nil)
	ensemble, err := fetchEnsemble(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	goPrefix := C.GoString(prefix)
	goFigureType := C.GoString(figureType)
	goDir := C.GoString(directory)
	if goPrefix == "" {
		goPrefix = "tree"
	}
	if goFigureType == "" {
		goFigureType = "svg"
	}
	if goDir == "" {
		goDir = "."
	}
	if err := ensemble.RenderTrees(goPrefix, goFigureType, goDir); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
