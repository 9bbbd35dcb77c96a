package termui

import "sync"

// task is a cancellable scheduled animation. Cancel blocks until the task's
// goroutine has finished writing, so the caller can safely repaint.
type task struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newTask() *task {
	return &task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (t *task) cancel() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}

func (t *task) cancelled() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}
