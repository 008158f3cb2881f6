package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/kerf/pkg/scene"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's limit.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation was overtaken
	// by a newer one on the same engine.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// evalResult carries one evaluation's output through a channel.
type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// wait returns the result from ch, or ErrTimeout once the engine's limit
// has passed. A result whose generation is no longer current is dropped.
//
// On timeout the evaluating goroutine may still be running; the generation
// check discards its result when it eventually completes.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*scene.Scene, []EvalError, error) {
	limit := e.Timeout
	if limit <= 0 {
		limit = EvalTimeout
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}

// current reports whether gen is the latest evaluation started.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}
