package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor drains whatever work is currently pending.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor at a fixed interval until stopped. Processing
// errors are logged and the loop keeps going; a poisoned batch must not
// take the worker down.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stop         chan struct{}
	done         chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs the polling loop until the context is cancelled or Stop is
// called. It blocks; run it in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Printf("analysis worker: polling every %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("analysis worker: context cancelled")
			return
		case <-w.stop:
			log.Println("analysis worker: stop requested")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("analysis worker: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to drain.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
	log.Println("analysis worker: shutdown complete")
}
