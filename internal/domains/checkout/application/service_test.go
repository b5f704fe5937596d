package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/equipment-checkout/internal/domains/checkout/adapters/memory"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/equipment-checkout/internal/domains/checkout/ports"
)

type fakeCheckoutRepo struct {
	requests map[int64]*domain.StagedCheckoutRequest
	nextID   int64
	updates  int
	mutates  int
	// beforeMutate runs ahead of the locked read, standing in for a writer
	// that commits just before Mutate acquires the row.
	beforeMutate func()
}

func newFakeCheckoutRepo() *fakeCheckoutRepo {
	return &fakeCheckoutRepo{requests: map[int64]*domain.StagedCheckoutRequest{}}
}

func (f *fakeCheckoutRepo) Create(_ context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	copy := req.Clone()
	if copy.ID == 0 {
		f.nextID++
		copy.ID = f.nextID
	}
	f.requests[copy.ID] = copy
	return copy.Clone(), nil
}

func (f *fakeCheckoutRepo) Update(_ context.Context, req *domain.StagedCheckoutRequest) (*domain.StagedCheckoutRequest, error) {
	if _, ok := f.requests[req.ID]; !ok {
		return nil, ports.ErrNotFound
	}
	f.updates++
	f.requests[req.ID] = req.Clone()
	return req.Clone(), nil
}

func (f *fakeCheckoutRepo) Mutate(_ context.Context, id int64, fn func(*domain.StagedCheckoutRequest) error) (*domain.StagedCheckoutRequest, error) {
	if hook := f.beforeMutate; hook != nil {
		f.beforeMutate = nil
		hook()
	}
	stored, ok := f.requests[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	f.mutates++
	f.requests[id] = working
	return working.Clone(), nil
}

func (f *fakeCheckoutRepo) GetByID(_ context.Context, id int64) (*domain.StagedCheckoutRequest, error) {
	if r, ok := f.requests[id]; ok {
		return r.Clone(), nil
	}
	return nil, ports.ErrNotFound
}

func (f *fakeCheckoutRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.requests[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeCheckoutRepo) List(_ context.Context) ([]*domain.StagedCheckoutRequest, error) {
	var list []*domain.StagedCheckoutRequest
	for _, r := range f.requests {
		list = append(list, r.Clone())
	}
	return list, nil
}

func TestStageRequest_ValidatesAndPersists(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo)

	staged, err := svc.StageRequest(context.Background(), &domain.StagedCheckoutRequest{UserName: " alice ", PID: 1001}, "")
	require.NoError(t, err)
	require.Equal(t, int64(1), staged.ID)
	require.Equal(t, "alice", staged.UserName)
	require.NotNil(t, staged.IDChoices)
	require.Empty(t, staged.IDChoices)
}

func TestStageRequest_InvalidInput(t *testing.T) {
	svc := NewService(newFakeCheckoutRepo())

	_, err := svc.StageRequest(context.Background(), &domain.StagedCheckoutRequest{UserName: "", PID: 1}, "")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrEmptyUserName)

	_, err = svc.StageRequest(context.Background(), &domain.StagedCheckoutRequest{UserName: "alice"}, "")
	require.ErrorIs(t, err, domain.ErrInvalidPID)
}

func TestUpdateRequest_DoesNotEnforceSelectionMembership(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo)
	ctx := context.Background()

	staged, err := svc.StageRequest(ctx, &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{10}}, "")
	require.NoError(t, err)

	outside := int64(99)
	staged.SelectedID = &outside
	updated, err := svc.UpdateRequest(ctx, staged)
	require.NoError(t, err)
	require.Equal(t, int64(99), *updated.SelectedID)
}

func TestUpdateRequest_Missing(t *testing.T) {
	svc := NewService(newFakeCheckoutRepo())

	_, err := svc.UpdateRequest(context.Background(), &domain.StagedCheckoutRequest{ID: 3, UserName: "alice", PID: 1})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSelectEquipment(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo)
	ctx := context.Background()

	staged, err := svc.StageRequest(ctx, &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{10, 11, 12}}, "")
	require.NoError(t, err)

	_, err = svc.SelectEquipment(ctx, staged.ID, 13)
	require.ErrorIs(t, err, ErrInvalidSelection)
	require.Zero(t, repo.mutates)

	selected, err := svc.SelectEquipment(ctx, staged.ID, 12)
	require.NoError(t, err)
	require.Equal(t, int64(12), *selected.SelectedID)

	fetched, err := svc.GetRequest(ctx, staged.ID)
	require.NoError(t, err)
	require.Equal(t, int64(12), *fetched.SelectedID)

	_, err = svc.SelectEquipment(ctx, 404, 12)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestListAndDeleteRequests(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		_, err := svc.StageRequest(ctx, &domain.StagedCheckoutRequest{UserName: name, PID: 1}, "")
		require.NoError(t, err)
	}
	list, err := svc.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, svc.DeleteRequest(ctx, 1))
	require.ErrorIs(t, svc.DeleteRequest(ctx, 1), ports.ErrNotFound)
}

func TestSelectEquipment_ChecksChoicesCommittedBeforeLock(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo)
	ctx := context.Background()

	staged, err := svc.StageRequest(ctx, &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{10, 11}}, "")
	require.NoError(t, err)

	replaced := staged.Clone()
	replaced.IDChoices = []int64{20, 21}
	repo.beforeMutate = func() {
		_, err := svc.UpdateRequest(ctx, replaced)
		require.NoError(t, err)
	}

	_, err = svc.SelectEquipment(ctx, staged.ID, 10)
	require.ErrorIs(t, err, ErrInvalidSelection)

	fetched, err := svc.GetRequest(ctx, staged.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{20, 21}, fetched.IDChoices)
	require.Nil(t, fetched.SelectedID)

	selected, err := svc.SelectEquipment(ctx, staged.ID, 20)
	require.NoError(t, err)
	require.Equal(t, int64(20), *selected.SelectedID)
	require.Equal(t, []int64{20, 21}, selected.IDChoices)
}

func TestStageRequest_RejectsClientID(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo)

	_, err := svc.StageRequest(context.Background(), &domain.StagedCheckoutRequest{ID: 5, UserName: "alice", PID: 1}, "")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, ErrIDAssigned)
	require.Empty(t, repo.requests)
}

func TestStageRequest_IdempotencyKeyReplays(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo, WithIdempotencyStore(memory.NewIdempotencyStore()))
	ctx := context.Background()
	req := &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{10, 11}}

	first, err := svc.StageRequest(ctx, req, "order-42")
	require.NoError(t, err)
	again, err := svc.StageRequest(ctx, &domain.StagedCheckoutRequest{UserName: " alice ", PID: 1, IDChoices: []int64{10, 11}}, " order-42 ")
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Len(t, repo.requests, 1)

	_, err = svc.StageRequest(ctx, &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{12}}, "order-42")
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	other, err := svc.StageRequest(ctx, req, "order-43")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)

	unkeyed, err := svc.StageRequest(ctx, req, "")
	require.NoError(t, err)
	require.Len(t, repo.requests, 3)
	require.NotEqual(t, other.ID, unkeyed.ID)
}

// racingStore reports that another caller saved the key first.
type racingStore struct {
	ports.IdempotencyStore
	winner ports.IdempotencyRecord
}

func (r racingStore) Get(context.Context, string) (*ports.IdempotencyRecord, error) {
	return nil, nil
}

func (r racingStore) Save(context.Context, ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	winner := r.winner
	return &winner, ports.ErrIdempotencyConflict
}

func TestStageRequest_LosingConcurrentSaveReplaysWinner(t *testing.T) {
	repo := newFakeCheckoutRepo()
	ctx := context.Background()
	req := &domain.StagedCheckoutRequest{UserName: "alice", PID: 1, IDChoices: []int64{10}}

	winner, err := repo.Create(ctx, req)
	require.NoError(t, err)
	hash, err := FingerprintStageRequest(req)
	require.NoError(t, err)

	svc := NewService(repo, WithIdempotencyStore(racingStore{winner: ports.IdempotencyRecord{Key: "k", RequestHash: hash, RequestID: winner.ID}}))
	staged, err := svc.StageRequest(ctx, req, "k")
	require.NoError(t, err)
	require.Equal(t, winner, staged)
	require.Len(t, repo.requests, 1)
}

type failingStore struct {
	ports.IdempotencyStore
}

func (failingStore) Get(context.Context, string) (*ports.IdempotencyRecord, error) {
	return nil, errors.New("store down")
}

func TestStageRequest_IdempotencyStoreFailure(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := NewService(repo, WithIdempotencyStore(failingStore{}))

	_, err := svc.StageRequest(context.Background(), &domain.StagedCheckoutRequest{UserName: "alice", PID: 1}, "k")
	require.EqualError(t, err, "store down")
	require.Empty(t, repo.requests)
}
