package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// errPoolStopped is returned by Launch after Stop
var errPoolStopped = errors.New("worker pool stopped")

// Kernel processes one path index. Each invocation owns exactly one slot of
// every buffer it writes, so kernels take no locks.
type Kernel func(i int)

// BlockTask is a contiguous range of indices for one kernel launch
type BlockTask struct {
	Stage  Stage
	Block  int
	Start  int
	End    int
	Kernel Kernel
}

// BlockResult reports the outcome of a block
type BlockResult struct {
	Block int
	Err   error
}

// WorkerPool runs kernel blocks on a fixed set of goroutines
type WorkerPool struct {
	taskQueue   chan BlockTask
	resultQueue chan BlockResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	started     bool
	stopped     bool
}

// Worker executes blocks pulled from the shared task queue
type Worker struct {
	ID          int
	taskQueue   chan BlockTask
	resultQueue chan BlockResult
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan BlockTask, numWorkers*4),
		resultQueue: make(chan BlockResult, numWorkers*4),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	if wp.started {
		return
	}
	wp.started = true
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop shuts down all workers. It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	if wp.stopped {
		return
	}
	wp.stopped = true
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Launch runs kernel over [0, n) in blocks of blockSize and returns once every
// block has finished. A panicking block is reported as a DeviceError located at
// the caller; the remaining blocks still run to completion.
func (wp *WorkerPool) Launch(stage Stage, n, blockSize int, kernel Kernel) error {
	if wp.stopped || !wp.started {
		return deviceErrorAt(1, "launch "+stage.String(), errPoolStopped)
	}
	if n <= 0 {
		return nil
	}
	if blockSize <= 0 {
		blockSize = n
	}

	blocks := (n + blockSize - 1) / blockSize

	// Submit from a separate goroutine so a full task queue cannot stall result collection
	go func() {
		for b := 0; b < blocks; b++ {
			start := b * blockSize
			wp.taskQueue <- BlockTask{
				Stage:  stage,
				Block:  b,
				Start:  start,
				End:    min(start+blockSize, n),
				Kernel: kernel,
			}
		}
	}()

	var firstErr error
	for b := 0; b < blocks; b++ {
		result := <-wp.resultQueue
		if result.Err != nil && firstErr == nil {
			firstErr = result.Err
		}
	}
	if firstErr != nil {
		return deviceErrorAt(1, "launch "+stage.String(), firstErr)
	}
	return nil
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- BlockResult{
			Block: task.Block,
			Err:   w.execute(task),
		}
	}
}

// execute runs one block, turning a kernel panic into an error
func (w *Worker) execute(task BlockTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d, %s block %d [%d, %d): %v", w.ID, task.Stage, task.Block, task.Start, task.End, r)
		}
	}()

	for i := task.Start; i < task.End; i++ {
		task.Kernel(i)
	}
	return nil
}
