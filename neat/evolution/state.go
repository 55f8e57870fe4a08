package evolution

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// State is the lifecycle state of a Runner's background loop.
type State int

const (
	Idle State = iota
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// control holds the background loop state. Pausing swaps in a fresh resume
// channel that Resume closes.
type control struct {
	mu     sync.Mutex
	state  State
	resume chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start runs generations on a new goroutine until ctx is cancelled, Stop is
// called or a generation fails.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Idle {
		return ErrAlreadyStarted
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.state = Running
	r.logger.Info("evolution started")
	go r.loop(ctx)
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	var err error
	defer func() {
		r.mu.Lock()
		r.state = Stopped
		r.err = err
		r.cancel()
		r.mu.Unlock()
		r.logger.Info("evolution stopped", zap.Error(err))
		close(r.done)
	}()

	for {
		if err = r.waitWhilePaused(ctx); err != nil {
			break
		}
		if _, err = r.Step(ctx); err != nil {
			break
		}
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
}

// waitWhilePaused blocks until the runner is resumed or ctx is done.
func (r *Runner) waitWhilePaused(ctx context.Context) error {
	for {
		r.mu.Lock()
		paused, resume := r.state == Paused, r.resume
		r.mu.Unlock()
		if !paused {
			return ctx.Err()
		}
		select {
		case <-resume:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pause suspends the loop after the current generation. It has no effect
// unless the runner is running.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Running {
		return
	}
	r.state = Paused
	r.resume = make(chan struct{})
	r.logger.Info("evolution paused")
}

// Resume continues a paused loop.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Paused {
		return
	}
	r.state = Running
	close(r.resume)
	r.logger.Info("evolution resumed")
}

// TogglePause pauses a running loop or resumes a paused one.
func (r *Runner) TogglePause() {
	switch r.State() {
	case Running:
		r.Pause()
	case Paused:
		r.Resume()
	}
}

// Stop ends the loop at the next generation boundary. Calling Stop on an
// idle runner moves it straight to Stopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Idle:
		r.state = Stopped
		close(r.done)
	case Running, Paused:
		r.cancel()
	}
}

// Wait blocks until the loop has exited and returns the error that ended
// it. Cancellation is not an error.
func (r *Runner) Wait() error {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
