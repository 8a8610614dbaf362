package service

import (
	"context"
	"time"
)

// TextTransformer is the external text-transform capability. The call may be
// slow and may fail; implementations must honor ctx cancellation.
type TextTransformer interface {
	Transform(ctx context.Context, content, directive string) (string, error)
}

// ImageGenerator is the external image-generation capability.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Pacer enforces the inter-call delay inside an image batch. Injected so
// tests run without wall-clock waits.
type Pacer interface {
	Pause(ctx context.Context) error
}

// delayPacer sleeps for a fixed duration, respecting ctx cancellation.
type delayPacer struct {
	delay time.Duration
}

// NewDelayPacer returns a Pacer with a fixed inter-call delay.
func NewDelayPacer(delay time.Duration) Pacer {
	return &delayPacer{delay: delay}
}

func (p *delayPacer) Pause(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
