package app

import (
	"context"
	"time"

	"vietbuild/pkg/domain"
	"vietbuild/services/portal/internal/store"
)

type task struct {
	cancel context.CancelFunc
}

// startProcessing runs the simulated progress ticker for id until it reaches
// 100, the document is removed, or the app closes.
func (a *App) startProcessing(id string) {
	ctx, cancel := context.WithCancel(a.ctx)
	t := &task{cancel: cancel}
	a.mu.Lock()
	if prev, ok := a.tasks[id]; ok {
		prev.cancel()
	}
	a.tasks[id] = t
	a.mu.Unlock()

	a.goBackground(func(context.Context) {
		defer a.finishTask(id, t)
		a.tick(ctx, id)
	})
}

func (a *App) tick(ctx context.Context, id string) {
	ticker := time.NewTicker(a.progressInterval)
	defer ticker.Stop()
	progress := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, ok := a.docs.Get(id); !ok {
			return
		}
		var done bool
		progress, done = advance(progress, a.intn(16)+5)
		if done {
			a.complete(ctx, id)
			return
		}
		status := domain.StatusProcessing
		p := progress
		a.transition(ctx, id, store.DocumentPatch{Status: &status, Progress: &p})
	}
}

// advance adds step to progress. It reports done once 100 is reached, and
// never returns more than 100.
func advance(progress, step int) (int, bool) {
	progress += step
	if progress >= 100 {
		return 100, true
	}
	return progress, false
}

func (a *App) finishTask(id string, t *task) {
	t.cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tasks[id] == t {
		delete(a.tasks, id)
	}
}

// cancelProcessing stops the ticker for id, if any.
func (a *App) cancelProcessing(id string) {
	a.mu.Lock()
	t, ok := a.tasks[id]
	delete(a.tasks, id)
	a.mu.Unlock()
	if ok {
		t.cancel()
	}
}

func (a *App) processing() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}
