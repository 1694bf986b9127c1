package ocr

import (
	"context"
	"image"
	"time"
)

type result struct {
	text string
	err  error
}

// timeoutEngine bounds every Recognize call of the wrapped engine
type timeoutEngine struct {
	engine  Engine
	timeout time.Duration
}

// WithTimeout wraps engine so that each call returns context.DeadlineExceeded
// once timeout elapses. The underlying call keeps running in the background
// until it finishes; its result is discarded. A non-positive timeout returns
// engine unchanged.
func WithTimeout(engine Engine, timeout time.Duration) Engine {
	if timeout <= 0 {
		return engine
	}
	return &timeoutEngine{engine: engine, timeout: timeout}
}

func (t *timeoutEngine) Name() string { return t.engine.Name() }

func (t *timeoutEngine) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		text, err := t.engine.Recognize(ctx, img, opts)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
