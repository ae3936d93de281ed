package api

import (
	"context"
	"sync"
)

type refreshResult struct {
	err   error
	token string
}

// refreshGate гарантирует, что одновременно выполняется не более одного refresh.
// Запросы, пришедшие во время refresh, ждут его результата в порядке очереди.
type refreshGate struct {
	waiters  []chan refreshResult
	mu       sync.Mutex
	inFlight bool
}

// do выполняет fn, если refresh еще не идет, иначе ждет результата текущего.
// Флаг inFlight снимается при любом исходе fn, включая панику.
func (g *refreshGate) do(ctx context.Context, fn func() (string, error)) (string, error) {
	g.mu.Lock()
	if g.inFlight {
		// буфер 1: лидер не блокируется, даже если ожидающий уже ушел по ctx
		ch := make(chan refreshResult, 1)
		g.waiters = append(g.waiters, ch)
		g.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.inFlight = true
	g.mu.Unlock()

	res := refreshResult{err: errRefreshAborted}
	defer g.settle(&res)

	res.token, res.err = fn()
	return res.token, res.err
}

// settle снимает флаг и раздает результат ожидающим в порядке постановки в очередь
func (g *refreshGate) settle(res *refreshResult) {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.inFlight = false
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- *res
	}
}

// pending возвращает число ожидающих (для тестов и диагностики)
func (g *refreshGate) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}
