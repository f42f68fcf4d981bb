package gbl

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	counter *int64
}

func (t countingTask) Execute() {
	atomic.AddInt64(t.counter, 1)
}

func TestPoolExecutesEveryTask(t *testing.T) {
	var counter int64
	taskPool := NewPool(3)
	for i := 0; i < 50; i++ {
		taskPool.AddTask(countingTask{&counter})
	}
	taskPool.Close()
	taskPool.WaitAll()
	assert.Equal(t, int64(50), atomic.LoadInt64(&counter))
}
