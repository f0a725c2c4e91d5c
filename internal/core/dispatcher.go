package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"golang.org/x/sync/errgroup"

	"github.com/skboreys/sundaycodelabs/internal/reply"
)

// Detector forwards a text query to the intent-detection service.
type Detector interface {
	Detect(ctx context.Context, q Query) error
}

// Pusher sends push messages to a LINE user.
type Pusher interface {
	Push(userID string, messages ...messaging_api.MessageInterface) error
}

// Dispatcher routes inbound chat events to their handlers.
type Dispatcher struct {
	detector Detector
	pusher   Pusher
	logger   *slog.Logger

	inflight sync.WaitGroup
}

func NewDispatcher(detector Detector, pusher Pusher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		detector: detector,
		pusher:   pusher,
		logger:   logger,
	}
}

// Dispatch handles a single event.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case TextMessage, LocationMessage, Postback:
		return d.forward(ctx, e)
	case StickerMessage:
		return d.handleSticker(ctx, e)
	case Follow:
		return d.handleFollow(e)
	default:
		return fmt.Errorf("%w: %s", ErrUnrecognizedEvent, ev.Kind())
	}
}

// DispatchBatch starts one goroutine per event and returns without waiting.
// A failing event is logged and never stops its siblings.
func (d *Dispatcher) DispatchBatch(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	d.inflight.Add(1)
	var g errgroup.Group
	for _, ev := range events {
		g.Go(func() error {
			err := d.Dispatch(ctx, ev)
			if err != nil {
				d.logger.Error("event handling failed",
					"event", ev.Kind(),
					"user_id", ev.Metadata().UserID(),
					"error", err,
				)
			}
			return err
		})
	}

	go func() {
		defer d.inflight.Done()
		if err := g.Wait(); err != nil {
			d.logger.Warn("webhook batch finished with errors", "events", len(events), "first_error", err)
			return
		}
		d.logger.Debug("webhook batch finished", "events", len(events))
	}()
}

// Wait blocks until every batch started by DispatchBatch has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) forward(ctx context.Context, ev Event) error {
	q, err := Normalize(ev)
	if err != nil {
		return err
	}
	if err := d.detector.Detect(ctx, q); err != nil {
		return fmt.Errorf("failed to forward %s query: %w", ev.Kind(), err)
	}
	return nil
}

func (d *Dispatcher) handleSticker(ctx context.Context, e StickerMessage) error {
	// The notice and the forward are independent; a failed push must not skip the forward.
	if err := d.pusher.Push(e.UserID(), reply.Text(StickerNotice(e.Keywords))); err != nil {
		d.logger.Warn("sticker notice push failed", "user_id", e.UserID(), "error", err)
	}
	return d.forward(ctx, e)
}

func (d *Dispatcher) handleFollow(e Follow) error {
	if err := d.pusher.Push(e.UserID(), reply.Onboarding()); err != nil {
		d.logger.Warn("onboarding push failed", "user_id", e.UserID(), "error", err)
	}
	return nil
}
