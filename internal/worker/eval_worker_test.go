package worker

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// recordingStore counts Ensure calls per paper; everything else is a
// no-op because EvalWorker only drives EvaluatePaper.
type recordingStore struct {
	service.TaskStore

	mu      sync.Mutex
	ensured map[int]int
}

func (r *recordingStore) Ensure(_ context.Context, _ model.TaskKind, paper int, _ *int, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensured[paper]++
	return nil
}

func (r *recordingStore) ensuredCount(paper int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensured[paper]
}

type allFilledPapers struct{}

func (allFilledPapers) IsComplete(context.Context, int) (bool, error) { return true, nil }
func (allFilledPapers) IDSlotFilled(context.Context, int) (bool, error) {
	return true, nil
}
func (allFilledPapers) TaskImages(context.Context, int, []int, int) ([]model.TaskImage, error) {
	return nil, nil
}

type noPredictions struct{}

func (noPredictions) ListByPaper(context.Context, int) ([]model.IDPrediction, error) {
	return nil, nil
}

type staticLayout struct{}

func (staticLayout) Get(context.Context) (*model.Layout, error) {
	return &model.Layout{
		Name:       "Final",
		PublicCode: "12345",
		Pages:      2,
		IDPage:     1,
		Versions:   1,
		Questions:  []model.QuestionLayout{{Idx: 1, Label: "Q1", Pages: []int{2}, Marks: 5}},
	}, nil
}

func TestEvalWorkerDrainsQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := &recordingStore{ensured: make(map[int]int)}
	taskSvc := service.NewTaskService(store, allFilledPapers{}, noPredictions{}, staticLayout{}, zerolog.Nop())
	w := NewEvalWorker(taskSvc, rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, paper := range []int{3, 7, 7} {
		if err := rdb.RPush(ctx, config.WorkerKey.TaskEvalQueue, strconv.Itoa(paper)).Err(); err != nil {
			t.Fatalf("RPush: %v", err)
		}
	}
	// Garbage entries are dropped, not retried.
	rdb.RPush(ctx, config.WorkerKey.TaskEvalQueue, "not-a-number")
	rdb.RPush(ctx, config.WorkerKey.TaskEvalQueue, "-4")

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		// Full layout: ID + 1 marking + totalling per evaluation.
		if store.ensuredCount(3) == 3 && store.ensuredCount(7) == 6 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("queue not drained: ensured=%v", store.ensured)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if n, err := rdb.LLen(ctx, config.WorkerKey.TaskEvalQueue).Result(); err != nil || n != 0 {
		t.Errorf("queue length = %d (err %v), want 0", n, err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
