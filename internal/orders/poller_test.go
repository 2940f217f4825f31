package orders

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

type countingObserver struct{ n atomic.Int32 }

func (c *countingObserver) PollTick() { c.n.Add(1) }

func TestPoller_RefreshesUntilStopped(t *testing.T) {
	api := &MockAPI{ListResults: [][]domain.Order{{{ID: "1"}}, {{ID: "1"}, {ID: "2"}}}}
	book := NewBook(api)
	obs := &countingObserver{}
	p := NewPoller(book, 10*time.Millisecond, obs, nil)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return api.listCalls() >= 2 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()
	<-done
	p.Wait()

	assert.Assert(t, obs.n.Load() >= 2)
}

func TestPoller_TicksOverlapAndLastResponseWins(t *testing.T) {
	release := make(chan struct{})
	api := &MockAPI{
		ListResults: [][]domain.Order{
			{{ID: "stale"}},
			{{ID: "fresh"}},
		},
	}
	// the first request hangs until the second one has landed
	api.ListHook = func(call int) {
		if call == 0 {
			<-release
		}
	}
	book := NewBook(api)
	p := NewPoller(book, time.Hour, nil, nil)
	ctx := context.Background()

	p.tick(ctx)
	require.Eventually(t, func() bool { return api.listCalls() == 1 }, time.Second, time.Millisecond)
	p.tick(ctx)

	require.Eventually(t, func() bool {
		o := book.Orders()
		return len(o) == 1 && o[0].ID == "fresh"
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	p.Wait()

	// the slow first tick finished after the second and overwrote it
	orders := book.Orders()
	assert.Equal(t, len(orders), 1)
	assert.Equal(t, orders[0].ID, domain.ID("stale"))
}

func TestViews_PollOnlyWhileOpen(t *testing.T) {
	api := &MockAPI{}
	book := NewBook(api)
	views := NewViews(context.Background(), func() *Poller {
		return NewPoller(book, 5*time.Millisecond, nil, nil)
	}, nil)
	t.Cleanup(views.Shutdown)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, api.listCalls(), 0)

	assert.Assert(t, views.Open("admin-a"))
	assert.Assert(t, !views.Open("admin-b"))
	assert.Assert(t, !views.Open("admin-a"))
	assert.Equal(t, views.Active(), 2)
	require.Eventually(t, func() bool { return api.listCalls() >= 2 }, 2*time.Second, time.Millisecond)

	views.Close("admin-a")
	assert.Assert(t, views.Polling())

	views.Close("admin-b")
	assert.Assert(t, !views.Polling())
	views.runs.Wait()

	stopped := api.listCalls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, api.listCalls(), stopped)

	assert.Assert(t, views.Open("admin-a"))
	require.Eventually(t, func() bool { return api.listCalls() > stopped }, 2*time.Second, time.Millisecond)
}

func TestViews_ExpireClosesStaleViews(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	views := NewViews(context.Background(), func() *Poller {
		return NewPoller(NewBook(&MockAPI{}), time.Hour, nil, nil)
	}, nil)
	views.now = func() time.Time { return now }
	t.Cleanup(views.Shutdown)

	views.Open("old")
	now = now.Add(10 * time.Minute)
	views.Open("fresh")

	assert.Equal(t, views.Expire(5*time.Minute), 1)
	assert.Equal(t, views.Active(), 1)
	assert.Assert(t, views.Polling())

	now = now.Add(10 * time.Minute)
	assert.Equal(t, views.Expire(5*time.Minute), 1)
	assert.Assert(t, !views.Polling())
}
