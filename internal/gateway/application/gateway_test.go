package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/localmarket/internal/gateway/domain"
)

type fakeRequestRepo struct {
	records map[string]*domain.RequestRecord
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{records: map[string]*domain.RequestRecord{}}
}

func (r *fakeRequestRepo) Save(_ context.Context, record *domain.RequestRecord) (*domain.RequestRecord, bool, error) {
	if existing, ok := r.records[record.RequestKey]; ok {
		return existing, false, nil
	}
	r.records[record.RequestKey] = record
	return record, true, nil
}

func (r *fakeRequestRepo) Get(_ context.Context, requestKey string) (*domain.RequestRecord, error) {
	record, ok := r.records[requestKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (r *fakeRequestRepo) SetResult(_ context.Context, requestKey, resultRef string) error {
	if record, ok := r.records[requestKey]; ok {
		record.ResultRef = resultRef
	}
	return nil
}

func (r *fakeRequestRepo) Release(_ context.Context, requestKey string) error {
	delete(r.records, requestKey)
	return nil
}

func newTestGateway(requests domain.RequestRepository) *MatchingGateway {
	return NewMatchingGateway(nil, nil, nil, nil, requests)
}

func TestIdempotentEmptyKeyAlwaysExecutes(t *testing.T) {
	g := newTestGateway(newFakeRequestRepo())
	actor := ActorContext{PartyID: "vendor-1", Role: RoleVendor}

	executions := 0
	execute := func() (string, error) {
		executions++
		return "ORD-1", nil
	}
	for i := 0; i < 3; i++ {
		ref, err := g.idempotent(context.Background(), actor, "", "create_order", execute)
		require.NoError(t, err)
		assert.Equal(t, "ORD-1", ref)
	}
	assert.Equal(t, 3, executions)
}

func TestIdempotentDedupsByRequestKey(t *testing.T) {
	repo := newFakeRequestRepo()
	g := newTestGateway(repo)
	actor := ActorContext{PartyID: "vendor-1", Role: RoleVendor}

	executions := 0
	execute := func() (string, error) {
		executions++
		return "ORD-1", nil
	}

	first, err := g.idempotent(context.Background(), actor, "req-1", "create_order", execute)
	require.NoError(t, err)
	second, err := g.idempotent(context.Background(), actor, "req-1", "create_order", execute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, executions)
	assert.Equal(t, "create_order", repo.records["req-1"].Operation)
}

func TestIdempotentFailureLeavesNoRecord(t *testing.T) {
	repo := newFakeRequestRepo()
	g := newTestGateway(repo)
	actor := ActorContext{PartyID: "vendor-1", Role: RoleVendor}

	_, err := g.idempotent(context.Background(), actor, "req-1", "create_order", func() (string, error) {
		return "", errors.New("downstream failed")
	})
	require.Error(t, err)
	assert.Empty(t, repo.records)

	// 失败的请求键可以重试
	ref, err := g.idempotent(context.Background(), actor, "req-1", "create_order", func() (string, error) {
		return "ORD-2", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", ref)
}

func TestIdempotentLoserNeverExecutes(t *testing.T) {
	// 请求键已被先到的同键请求占用并完成：落败方直接拿到结果引用，
	// 绝不再执行聚合操作，不会留下孤儿聚合
	repo := newFakeRequestRepo()
	g := newTestGateway(repo)
	actor := ActorContext{PartyID: "vendor-1", Role: RoleVendor}
	repo.records["req-1"] = &domain.RequestRecord{RequestKey: "req-1", ResultRef: "ORD-winner"}

	executions := 0
	ref, err := g.idempotent(context.Background(), actor, "req-1", "create_order", func() (string, error) {
		executions++
		return "ORD-loser", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-winner", ref)
	assert.Equal(t, 0, executions)
}

func TestIdempotentInFlightRequestConflicts(t *testing.T) {
	// 首次执行尚未完成（结果引用为空）时，同键请求收到冲突而不是重复执行
	repo := newFakeRequestRepo()
	g := newTestGateway(repo)
	actor := ActorContext{PartyID: "vendor-1", Role: RoleVendor}
	repo.records["req-1"] = &domain.RequestRecord{RequestKey: "req-1", PartyID: "vendor-1"}

	executions := 0
	_, err := g.idempotent(context.Background(), actor, "req-1", "create_order", func() (string, error) {
		executions++
		return "ORD-2", nil
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, executions)
}

func TestRequireRole(t *testing.T) {
	g := newTestGateway(newFakeRequestRepo())

	err := g.requireRole(ActorContext{PartyID: "", Role: RoleVendor}, RoleVendor)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = g.requireRole(ActorContext{PartyID: "supplier-1", Role: RoleSupplier}, RoleVendor)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	assert.NoError(t, g.requireRole(ActorContext{PartyID: "vendor-1", Role: RoleVendor}, RoleVendor))
}
