package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// errAbandoned marks a shared call which was cancelled because every caller
// waiting on it gave up.
var errAbandoned = errors.New("shared call abandoned")

// sharedGroup coalesces concurrent calls with the same key like
// singleflight.Group. The call runs under a context detached from its
// callers, which is cancelled only once no caller is waiting anymore. A
// caller returns early on its own context only.
type sharedGroup struct {
	group singleflight.Group

	calls map[string]*sharedCall
	// calls mutex
	mu sync.Mutex
}

type sharedCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (g *sharedGroup) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	for {
		call := g.join(ctx, key)
		ch := g.group.DoChan(key, func() (any, error) {
			v, err := fn(call.ctx)
			if err != nil && call.ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errAbandoned, err)
			}
			return v, err
		})

		select {
		case <-ctx.Done():
			g.leave(key, call)
			return nil, ctx.Err()
		case res := <-ch:
			g.leave(key, call)
			if errors.Is(res.Err, errAbandoned) {
				// Joined a call every earlier caller walked away from
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			return res.Val, res.Err
		}
	}
}

func (g *sharedGroup) join(ctx context.Context, key string) *sharedCall {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = make(map[string]*sharedCall)
	}
	call, ok := g.calls[key]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &sharedCall{ctx: runCtx, cancel: cancel}
		g.calls[key] = call
	}
	call.waiters++
	return call
}

func (g *sharedGroup) leave(key string, call *sharedCall) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if g.calls[key] == call {
		delete(g.calls, key)
	}
}
