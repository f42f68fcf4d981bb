package gbl

import "sync"

//Task is a unit of work executed by a Pool.
type Task interface {
	Execute()
}

//Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
}

//NewPool starts threads workers.
func NewPool(threads int) *Pool {
	if threads < 1 {
		threads = 1
	}
	pool := &Pool{tasks: make(chan Task, threads)}
	pool.wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer pool.wg.Done()
			for task := range pool.tasks {
				task.Execute()
			}
		}()
	}
	return pool
}

//AddTask queues a task, blocking while every worker is busy and the queue is full.
func (p *Pool) AddTask(task Task) {
	p.tasks <- task
}

//Close tells the workers that no more tasks will come.
func (p *Pool) Close() {
	close(p.tasks)
}

//WaitAll waits until every queued task is executed. Close must be called first.
func (p *Pool) WaitAll() {
	p.wg.Wait()
}

//TaskDecodeTree decodes one tree and stores the outcome at its index.
type TaskDecodeTree struct {
	trees  []*Tree
	errs   []error
	index  int
	decode func(index int) (*Tree, error)
}

func (t *TaskDecodeTree) Execute() {
	t.trees[t.index], t.errs[t.index] = t.decode(t.index)
}
