// Package server hosts the TCP front end: a fixed-size worker pool that
// reads client connections, a single-writer command loop that serializes
// every call into the pool manager, and the framing glue between the two.
// Adapted from the retrieval pack's own worker.go/server.go, which used the
// same tomb-supervised worker-pool shape for a line-oriented exchange
// protocol.
package server

import (
	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunc is one unit of work a pool worker executes; it returns an
// error only for a failure of the task itself (such as a task that is not
// a connection), not for ordinary per-request errors, which are reported
// back to the client as a wire.Response instead. The worker logs a
// returned error and goes on to the next task.
type WorkerFunc = func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed number of goroutines pulling from a shared task
// queue, supervised by a tomb so the whole pool shuts down together.
type WorkerPool struct {
	size int
	work WorkerFunc
	log  zerolog.Logger

	tasks chan any
}

func newWorkerPool(size int, log zerolog.Logger) WorkerPool {
	return WorkerPool{
		size:  size,
		log:   log,
		tasks: make(chan any, taskChanSize),
	}
}

// Setup launches `size` worker goroutines under t, each running work.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	p.work = work
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.loop(t)
		})
	}
}

// loop runs a single worker until the tomb is dying.
func (p *WorkerPool) loop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := p.work(t, task); err != nil {
				p.log.Error().Err(err).Msg("connection worker exiting")
			}
		}
	}
}

// Submit enqueues a task (a net.Conn, in this server's usage) for a free
// worker to pick up.
func (p *WorkerPool) Submit(task any) {
	p.tasks <- task
}
