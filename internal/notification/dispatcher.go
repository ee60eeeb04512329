package notification

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/doorbell-core/internal/push"
	"github.com/nerrad567/doorbell-core/internal/store"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// maxConcurrentLookups bounds parallel token registry reads per dispatch.
const maxConcurrentLookups = 16

// Dispatcher fans a payload out to every subscriber of a doorbell.
//
// Thread Safety: Dispatch is safe for concurrent use.
type Dispatcher struct {
	store     store.Reader
	resolver  *Resolver
	transport push.Transport
	logger    Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(s store.Reader, transport push.Transport, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		store:     s,
		resolver:  NewResolver(logger),
		transport: transport,
		logger:    logger,
	}
}

// Dispatch delivers payload to the eligible tokens of every subscriber of
// doorbellID.
//
// It returns (nil, nil) without calling the transport when no token is
// eligible. Otherwise the transport is called exactly once and its report is
// returned as is. A failed registry read fails the whole dispatch; nothing is
// sent from a partial set of lookups.
func (d *Dispatcher) Dispatch(ctx context.Context, doorbellID string, payload Payload) (*push.Report, error) {
	typ := payload.Notification.Type

	subscribers, err := d.subscribers(ctx, doorbellID)
	if err != nil {
		return nil, err
	}
	if len(subscribers) == 0 {
		d.logger.Debug("doorbell has no subscribers", "doorbell_id", doorbellID, "type", typ)
		return nil, nil
	}

	var (
		mu    sync.Mutex
		union = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for _, uid := range subscribers {
		g.Go(func() error {
			v, err := d.store.Get(gctx, store.UserTokens(uid))
			if err != nil {
				return fmt.Errorf("reading tokens of %s: %w", uid, err)
			}
			registry, _ := v.(map[string]any)

			tokens := d.resolver.Resolve(uid, registry, typ)

			mu.Lock()
			for _, tok := range tokens {
				union[tok] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(union) == 0 {
		d.logger.Debug("no eligible tokens", "doorbell_id", doorbellID, "type", typ)
		return nil, nil
	}

	tokens := make([]string, 0, len(union))
	for tok := range union {
		tokens = append(tokens, tok)
	}
	slices.Sort(tokens)

	d.logger.Info("sending notification",
		"doorbell_id", doorbellID,
		"type", typ,
		"subscribers", len(subscribers),
		"tokens", len(tokens),
	)

	report, err := d.transport.SendToDevices(ctx, tokens, payload)
	if err != nil {
		return report, fmt.Errorf("sending %s notification: %w", typ, err)
	}
	return report, nil
}

// subscribers returns the sorted uids subscribed to doorbellID.
func (d *Dispatcher) subscribers(ctx context.Context, doorbellID string) ([]string, error) {
	v, err := d.store.Get(ctx, store.DoorbellUsers(doorbellID))
	if err != nil {
		return nil, fmt.Errorf("reading subscribers of %s: %w", doorbellID, err)
	}
	users, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}

	uids := make([]string, 0, len(users))
	for uid := range users {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	return uids, nil
}
