package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/rs/zerolog"
)

// fakeTaskStore is an in-memory TaskStore with the same guarded
// transitions as the SQL implementation.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*model.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*model.Task)}
}

func (f *fakeTaskStore) key(kind model.TaskKind, paper int, q *int) string {
	qi := 0
	if q != nil {
		qi = *q
	}
	return fmt.Sprintf("%s/%d/%d", kind, paper, qi)
}

func (f *fakeTaskStore) find(kind model.TaskKind, paper int, q *int) *model.Task {
	want := f.key(kind, paper, q)
	for _, t := range f.tasks {
		if f.key(t.Kind, t.PaperNumber, t.QuestionIdx) == want {
			return t
		}
	}
	return nil
}

func (f *fakeTaskStore) Ensure(_ context.Context, kind model.TaskKind, paper int, q *int, priority float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t := f.find(kind, paper, q); t != nil {
		if t.OutOfDate {
			t.OutOfDate = false
			t.UpdatedAt = time.Now()
		}
		return nil
	}
	var qi *int
	if q != nil {
		v := *q
		qi = &v
	}
	t := &model.Task{
		ID:          uuid.New(),
		Kind:        kind,
		PaperNumber: paper,
		QuestionIdx: qi,
		State:       model.TaskStateAvailable,
		Priority:    priority,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) ListAvailable(_ context.Context, kind model.TaskKind, limit int) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, t := range f.tasks {
		if t.Kind == kind && t.State == model.TaskStateAvailable && !t.OutOfDate {
			out = append(out, *t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListByPaper(_ context.Context, paper int) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Task
	for _, t := range f.tasks {
		if t.PaperNumber == paper {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Claim(_ context.Context, id uuid.UUID, owner, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.State != model.TaskStateAvailable || t.OutOfDate {
		return false, nil
	}
	now := time.Now()
	t.State = model.TaskStateClaimed
	t.Owner = &owner
	t.ClaimToken = &token
	t.ClaimedAt = &now
	return true, nil
}

func (f *fakeTaskStore) Unclaim(_ context.Context, id uuid.UUID, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.State != model.TaskStateClaimed || t.ClaimToken == nil || *t.ClaimToken != token {
		return false, nil
	}
	t.State = model.TaskStateAvailable
	t.Owner = nil
	t.ClaimToken = nil
	t.ClaimedAt = nil
	return true, nil
}

func (f *fakeTaskStore) Complete(_ context.Context, id uuid.UUID, token string, result json.RawMessage) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.State != model.TaskStateClaimed || t.ClaimToken == nil || *t.ClaimToken != token {
		return false, nil
	}
	now := time.Now()
	t.State = model.TaskStateComplete
	t.Result = result
	t.CompletedAt = &now
	t.ClaimToken = nil
	return true, nil
}

func (f *fakeTaskStore) SweepExpired(_ context.Context, timeout time.Duration) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var freed []uuid.UUID
	cutoff := time.Now().Add(-timeout)
	for _, t := range f.tasks {
		if t.State == model.TaskStateClaimed && t.ClaimedAt != nil && t.ClaimedAt.Before(cutoff) {
			t.State = model.TaskStateAvailable
			t.Owner = nil
			t.ClaimToken = nil
			t.ClaimedAt = nil
			freed = append(freed, t.ID)
		}
	}
	return freed, nil
}

func (f *fakeTaskStore) FlagPaperOutOfDate(_ context.Context, paper int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tasks {
		if t.PaperNumber != paper || t.OutOfDate {
			continue
		}
		if t.State == model.TaskStateClaimed {
			t.State = model.TaskStateAvailable
			t.Owner = nil
			t.ClaimToken = nil
			t.ClaimedAt = nil
		}
		t.OutOfDate = true
		n++
	}
	return n, nil
}

func (f *fakeTaskStore) ResetOwner(_ context.Context, owner string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tasks {
		if t.State == model.TaskStateClaimed && t.Owner != nil && *t.Owner == owner {
			t.State = model.TaskStateAvailable
			t.Owner = nil
			t.ClaimToken = nil
			t.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskStore) Reset(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.State == model.TaskStateAvailable {
		return false, nil
	}
	t.State = model.TaskStateAvailable
	t.Owner = nil
	t.ClaimToken = nil
	t.ClaimedAt = nil
	t.Result = nil
	t.CompletedAt = nil
	return true, nil
}

func (f *fakeTaskStore) SetPriority(_ context.Context, id uuid.UUID, priority float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return false, nil
	}
	t.Priority = priority
	return true, nil
}

// fakePapers drives eligibility from two hard-coded sets. Setting
// imagesErr makes every image fetch fail.
type fakePapers struct {
	complete  map[int]bool
	idFilled  map[int]bool
	imagesErr error
}

func (f *fakePapers) IsComplete(_ context.Context, paper int) (bool, error) {
	return f.complete[paper], nil
}

func (f *fakePapers) IDSlotFilled(_ context.Context, paper int) (bool, error) {
	return f.idFilled[paper], nil
}

func (f *fakePapers) TaskImages(_ context.Context, paper int, pages []int, questionIdx int) ([]model.TaskImage, error) {
	if f.imagesErr != nil {
		return nil, f.imagesErr
	}
	images := make([]model.TaskImage, 0, len(pages))
	for _, p := range pages {
		pn := p
		images = append(images, model.TaskImage{
			ImageRef:   fmt.Sprintf("papers/%d/page_%d.png", paper, p),
			PageNumber: &pn,
		})
	}
	if questionIdx > 0 {
		images = append(images, model.TaskImage{
			ImageRef: fmt.Sprintf("papers/%d/extra_q%d.png", paper, questionIdx),
			Extra:    true,
		})
	}
	return images, nil
}

type fakePredictions struct {
	byPaper map[int][]model.IDPrediction
}

func (f *fakePredictions) ListByPaper(_ context.Context, paper int) ([]model.IDPrediction, error) {
	return f.byPaper[paper], nil
}

type fixedLayout struct{ layout model.Layout }

func (f fixedLayout) Get(context.Context) (*model.Layout, error) {
	l := f.layout
	return &l, nil
}

func testLayout() model.Layout {
	return model.Layout{
		Name:       "Midterm",
		PublicCode: "93849",
		Pages:      6,
		IDPage:     1,
		DNMPages:   []int{2},
		Versions:   2,
		Questions: []model.QuestionLayout{
			{Idx: 1, Label: "Q1", Pages: []int{3, 4}, Marks: 5},
			{Idx: 2, Label: "Q2", Pages: []int{5, 6}, Marks: 10},
		},
	}
}

func newTestTaskService(store *fakeTaskStore, papers *fakePapers, preds *fakePredictions) *TaskService {
	if papers == nil {
		papers = &fakePapers{complete: map[int]bool{}, idFilled: map[int]bool{}}
	}
	if preds == nil {
		preds = &fakePredictions{byPaper: map[int][]model.IDPrediction{}}
	}
	return NewTaskService(store, papers, preds, fixedLayout{testLayout()}, zerolog.Nop())
}

func TestEvaluatePaperIDOnly(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{},
		idFilled: map[int]bool{7: true},
	}, nil)

	if err := svc.EvaluatePaper(context.Background(), 7); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	tasks, _ := store.ListByPaper(context.Background(), 7)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Kind != model.TaskKindID {
		t.Errorf("kind = %s, want ID", tasks[0].Kind)
	}
}

func TestEvaluatePaperComplete(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{7: true},
		idFilled: map[int]bool{7: true},
	}, nil)

	if err := svc.EvaluatePaper(context.Background(), 7); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	tasks, _ := store.ListByPaper(context.Background(), 7)
	// ID + one marking per question + totalling.
	if len(tasks) != 4 {
		t.Fatalf("got %d tasks, want 4", len(tasks))
	}

	// A second evaluation must not mint duplicates.
	if err := svc.EvaluatePaper(context.Background(), 7); err != nil {
		t.Fatalf("EvaluatePaper again: %v", err)
	}
	tasks, _ = store.ListByPaper(context.Background(), 7)
	if len(tasks) != 4 {
		t.Errorf("after re-evaluation got %d tasks, want 4", len(tasks))
	}
}

func TestEvaluatePaperReinstatesOutOfDate(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{3: true},
		idFilled: map[int]bool{3: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 3); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	if n, _ := svc.FlagPaperOutOfDate(ctx, 3); n != 4 {
		t.Fatalf("flagged %d tasks, want 4", n)
	}
	for _, task := range mustList(t, store, 3) {
		if !task.OutOfDate {
			t.Fatalf("task %s not flagged out of date", task.ID)
		}
	}

	// Paper re-completes: the same tasks come back, not new ones.
	before := taskIDs(mustList(t, store, 3))
	if err := svc.EvaluatePaper(ctx, 3); err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	after := mustList(t, store, 3)
	if len(after) != 4 {
		t.Fatalf("got %d tasks after reinstatement, want 4", len(after))
	}
	for _, task := range after {
		if task.OutOfDate {
			t.Errorf("task %s still out of date", task.ID)
		}
		if !before[task.ID] {
			t.Errorf("task %s is new; reinstatement must reuse existing tasks", task.ID)
		}
	}
}

func TestFlagPaperKeepsCompletedOwner(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{11: true},
		idFilled: map[int]bool{11: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 11); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	idTask := store.find(model.TaskKindID, 11, nil)
	_, token, _, err := svc.Claim(ctx, idTask.ID, "iris")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := svc.Complete(ctx, idTask.ID, token, json.RawMessage(`{"student_id":"42"}`)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	q1 := 1
	markTask := store.find(model.TaskKindMarking, 11, &q1)
	if _, _, _, err := svc.Claim(ctx, markTask.ID, "jan"); err != nil {
		t.Fatalf("Claim marking: %v", err)
	}

	if _, err := svc.FlagPaperOutOfDate(ctx, 11); err != nil {
		t.Fatalf("FlagPaperOutOfDate: %v", err)
	}

	// The completed task keeps who did it and what they recorded.
	done, _ := store.GetByID(ctx, idTask.ID)
	if done.State != model.TaskStateComplete || !done.OutOfDate {
		t.Fatalf("id task state = %s out_of_date = %v", done.State, done.OutOfDate)
	}
	if done.Owner == nil || *done.Owner != "iris" {
		t.Error("flagging dropped the completing owner")
	}
	if done.Result == nil || done.CompletedAt == nil {
		t.Error("flagging dropped the completed result")
	}

	// The claimed task is force-released.
	claimed, _ := store.GetByID(ctx, markTask.ID)
	if claimed.State != model.TaskStateAvailable || claimed.Owner != nil {
		t.Errorf("marking task state = %s owner = %v", claimed.State, claimed.Owner)
	}
}

func TestClaimLifecycle(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{5: true},
		idFilled: map[int]bool{5: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 5); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	q1 := 1
	task := store.find(model.TaskKindMarking, 5, &q1)
	if task == nil {
		t.Fatal("marking task for q1 not found")
	}

	claimed, token, payload, err := svc.Claim(ctx, task.ID, "alice")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.State != model.TaskStateClaimed {
		t.Errorf("state = %s, want CLAIMED", claimed.State)
	}
	if token == "" {
		t.Error("empty claim token")
	}
	// Q1 spans pages 3-4 plus the synthetic extra image.
	if len(payload.Images) != 3 {
		t.Errorf("got %d payload images, want 3", len(payload.Images))
	}

	// Second claimant loses.
	if _, _, _, err := svc.Claim(ctx, task.ID, "bob"); !errors.Is(err, ErrClaimLost) {
		t.Errorf("second claim: err = %v, want ErrClaimLost", err)
	}

	// Wrong token cannot complete or unclaim.
	result := json.RawMessage(`{"marks": 4}`)
	if err := svc.Complete(ctx, task.ID, uuid.New().String(), result); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("complete with wrong token: err = %v, want ErrInvalidToken", err)
	}
	if err := svc.Unclaim(ctx, task.ID, uuid.New().String()); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unclaim with wrong token: err = %v, want ErrInvalidToken", err)
	}

	// The real token completes.
	if err := svc.Complete(ctx, task.ID, token, result); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	done, _ := store.GetByID(ctx, task.ID)
	if done.State != model.TaskStateComplete {
		t.Errorf("state = %s, want COMPLETE", done.State)
	}
	if string(done.Result) != string(result) {
		t.Errorf("result = %s", done.Result)
	}
}

func TestClaimReleasedWhenPayloadFails(t *testing.T) {
	store := newFakeTaskStore()
	papers := &fakePapers{
		complete:  map[int]bool{5: true},
		idFilled:  map[int]bool{5: true},
		imagesErr: errors.New("image store unavailable"),
	}
	svc := newTestTaskService(store, papers, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 5); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	q1 := 1
	task := store.find(model.TaskKindMarking, 5, &q1)

	if _, _, _, err := svc.Claim(ctx, task.ID, "gina"); err == nil {
		t.Fatal("claim succeeded despite payload failure")
	}

	// The caller never saw a token, so the claim must not stand.
	got, _ := store.GetByID(ctx, task.ID)
	if got.State != model.TaskStateAvailable {
		t.Fatalf("state = %s, want AVAILABLE", got.State)
	}
	if got.Owner != nil || got.ClaimToken != nil {
		t.Error("failed claim left owner or token behind")
	}

	// Another worker can take the task as soon as images are back.
	papers.imagesErr = nil
	if _, _, _, err := svc.Claim(ctx, task.ID, "hugo"); err != nil {
		t.Errorf("re-claim after payload failure: %v", err)
	}
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{8: true},
		idFilled: map[int]bool{8: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 8); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	task := store.find(model.TaskKindTotalling, 8, nil)

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, errs[i] = svc.Claim(ctx, task.ID, fmt.Sprintf("w%02d", i))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrClaimLost):
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("got %d winning claims, want exactly 1", wins)
	}
}

func TestClaimUnknownTask(t *testing.T) {
	svc := newTestTaskService(newFakeTaskStore(), nil, nil)
	if _, _, _, err := svc.Claim(context.Background(), uuid.New(), "alice"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestIDClaimCarriesPredictions(t *testing.T) {
	store := newFakeTaskStore()
	preds := &fakePredictions{byPaper: map[int][]model.IDPrediction{
		9: {
			{PaperNumber: 9, StudentID: "11223344", Certainty: 0.93, Predictor: "mlgreedy"},
			{PaperNumber: 9, StudentID: "11223345", Certainty: 0.41, Predictor: "mlgreedy"},
		},
	}}
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{},
		idFilled: map[int]bool{9: true},
	}, preds)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 9); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	task := store.find(model.TaskKindID, 9, nil)
	_, _, payload, err := svc.Claim(ctx, task.ID, "ida")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if len(payload.Predictions) != 2 {
		t.Fatalf("got %d predictions, want 2", len(payload.Predictions))
	}
	if payload.Predictions[0].StudentID != "11223344" {
		t.Errorf("top prediction = %s", payload.Predictions[0].StudentID)
	}
	// ID payload shows only the ID page.
	if len(payload.Images) != 1 {
		t.Errorf("got %d images, want 1", len(payload.Images))
	}
}

func TestSweepReleasesStaleClaims(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{2: true},
		idFilled: map[int]bool{2: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 2); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	task := store.find(model.TaskKindTotalling, 2, nil)
	_, token, _, err := svc.Claim(ctx, task.ID, "carol")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// Age the claim past the timeout.
	store.mu.Lock()
	old := time.Now().Add(-time.Hour)
	store.tasks[task.ID].ClaimedAt = &old
	store.mu.Unlock()

	freed, err := svc.Sweep(ctx, 15*time.Minute)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if freed != 1 {
		t.Fatalf("freed %d claims, want 1", freed)
	}

	// The stale token is dead; the task is claimable again.
	if err := svc.Complete(ctx, task.ID, token, json.RawMessage(`{}`)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("complete after sweep: err = %v, want ErrInvalidToken", err)
	}
	if _, _, _, err := svc.Claim(ctx, task.ID, "dave"); err != nil {
		t.Errorf("re-claim after sweep: %v", err)
	}
}

func TestResetOwnerReleasesClaims(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{4: true},
		idFilled: map[int]bool{4: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 4); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	q1, q2 := 1, 2
	for _, task := range []*model.Task{
		store.find(model.TaskKindMarking, 4, &q1),
		store.find(model.TaskKindMarking, 4, &q2),
	} {
		if _, _, _, err := svc.Claim(ctx, task.ID, "eve"); err != nil {
			t.Fatalf("Claim: %v", err)
		}
	}

	n, err := svc.ResetOwner(ctx, "eve")
	if err != nil {
		t.Fatalf("ResetOwner: %v", err)
	}
	if n != 2 {
		t.Errorf("released %d claims, want 2", n)
	}
	available, _ := svc.ListAvailable(ctx, model.TaskKindMarking, 10)
	if len(available) != 2 {
		t.Errorf("got %d available marking tasks, want 2", len(available))
	}
}

func TestResetReturnsCompletedTask(t *testing.T) {
	store := newFakeTaskStore()
	svc := newTestTaskService(store, &fakePapers{
		complete: map[int]bool{},
		idFilled: map[int]bool{6: true},
	}, nil)
	ctx := context.Background()

	if err := svc.EvaluatePaper(ctx, 6); err != nil {
		t.Fatalf("EvaluatePaper: %v", err)
	}
	task := store.find(model.TaskKindID, 6, nil)
	_, token, _, err := svc.Claim(ctx, task.ID, "frank")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := svc.Complete(ctx, task.ID, token, json.RawMessage(`{"student_id":"123"}`)); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if err := svc.Reset(ctx, task.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ := store.GetByID(ctx, task.ID)
	if got.State != model.TaskStateAvailable {
		t.Errorf("state = %s, want AVAILABLE", got.State)
	}
	if got.Result != nil || got.Owner != nil {
		t.Error("reset did not drop the result and owner")
	}

	// Resetting an available task is a no-op, not an error.
	if err := svc.Reset(ctx, task.ID); err != nil {
		t.Errorf("second reset: %v", err)
	}
	if err := svc.Reset(ctx, uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("reset unknown: err = %v, want ErrTaskNotFound", err)
	}
}

func TestSetPriorityUnknownTask(t *testing.T) {
	svc := newTestTaskService(newFakeTaskStore(), nil, nil)
	if err := svc.SetPriority(context.Background(), uuid.New(), 10); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func mustList(t *testing.T, store *fakeTaskStore, paper int) []model.Task {
	t.Helper()
	tasks, err := store.ListByPaper(context.Background(), paper)
	if err != nil {
		t.Fatalf("ListByPaper: %v", err)
	}
	return tasks
}

func taskIDs(tasks []model.Task) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = true
	}
	return ids
}

var _ TaskStore = (*fakeTaskStore)(nil)
