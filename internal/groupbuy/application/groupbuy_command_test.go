package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/localmarket/internal/groupbuy/domain"
)

type fakeGroupBuyRepo struct {
	groupBuys map[string]*domain.GroupBuy
}

func newFakeGroupBuyRepo() *fakeGroupBuyRepo {
	return &fakeGroupBuyRepo{groupBuys: map[string]*domain.GroupBuy{}}
}

func (r *fakeGroupBuyRepo) Create(_ context.Context, g *domain.GroupBuy) error {
	r.groupBuys[g.GroupBuyID] = g
	return nil
}

func (r *fakeGroupBuyRepo) Get(_ context.Context, groupBuyID string) (*domain.GroupBuy, error) {
	g, ok := r.groupBuys[groupBuyID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g, nil
}

func (r *fakeGroupBuyRepo) Update(_ context.Context, g *domain.GroupBuy) error {
	r.groupBuys[g.GroupBuyID] = g
	return nil
}

func (r *fakeGroupBuyRepo) ListBySupplier(context.Context, string, domain.GroupBuyStatus, int, int) ([]*domain.GroupBuy, int64, error) {
	return nil, 0, nil
}

func (r *fakeGroupBuyRepo) ListActive(context.Context, int, int) ([]*domain.GroupBuy, int64, error) {
	return nil, 0, nil
}

func (r *fakeGroupBuyRepo) ListExpiredActive(_ context.Context, now time.Time, _ int) ([]string, error) {
	var ids []string
	for id, g := range r.groupBuys {
		if g.Status == domain.StatusActive && now.After(g.Deadline) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePublisher struct {
	topics []string
}

func (p *fakePublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.topics = append(p.topics, topic)
	return nil
}

// fakeOrderCreator 与真实订单服务一样按 SourceRef 去重，并统计每个幂等键
// 实际落库的次数；可在第 N 次新建时失败，模拟扇出中途订单服务不可用。
type fakeOrderCreator struct {
	created map[string]int
	inserts int
	failAt  int
}

func newFakeOrderCreator() *fakeOrderCreator {
	return &fakeOrderCreator{created: map[string]int{}}
}

func (f *fakeOrderCreator) CreateSettledOrder(_ context.Context, spec domain.SettledOrder) (string, error) {
	if _, ok := f.created[spec.SourceRef]; ok {
		return "ORD-" + spec.SourceRef, nil
	}
	f.inserts++
	if f.failAt > 0 && f.inserts == f.failAt {
		f.inserts--
		return "", errors.New("order service unavailable")
	}
	f.created[spec.SourceRef]++
	return "ORD-" + spec.SourceRef, nil
}

type groupBuyFixture struct {
	svc       *GroupBuyCommandService
	repo      *fakeGroupBuyRepo
	publisher *fakePublisher
	orders    *fakeOrderCreator
	clock     time.Time
}

func newGroupBuyFixture() *groupBuyFixture {
	f := &groupBuyFixture{
		repo:      newFakeGroupBuyRepo(),
		publisher: &fakePublisher{},
		orders:    newFakeOrderCreator(),
		clock:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewGroupBuyCommandService(f.repo, fakeTxManager{}, f.publisher, f.orders)
	f.svc.SetClock(func() time.Time { return f.clock })
	return f
}

func (f *groupBuyFixture) seedGroupBuy(t *testing.T, target int64) string {
	t.Helper()
	groupBuyID, err := f.svc.CreateGroupBuy(context.Background(), CreateGroupBuyCommand{
		SupplierID:      "supplier-1",
		ItemName:        "potatoes",
		TargetQuantity:  decimal.NewFromInt(target),
		PricePerUnit:    decimal.NewFromInt(2),
		Unit:            "kg",
		MinParticipants: 1,
		Deadline:        f.clock.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return groupBuyID
}

func TestJoinPublishesClosedWhenTargetMet(t *testing.T) {
	f := newGroupBuyFixture()
	ctx := context.Background()
	groupBuyID := f.seedGroupBuy(t, 100)

	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-a", Quantity: decimal.NewFromInt(60),
	}))
	assert.NotContains(t, f.publisher.topics, domain.GroupBuyClosedTopic)

	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-b", Quantity: decimal.NewFromInt(40),
	}))

	assert.Equal(t, domain.StatusClosed, f.repo.groupBuys[groupBuyID].Status)
	assert.Contains(t, f.publisher.topics, domain.GroupBuyClosedTopic)
}

func TestCompleteFansOutOrderPerParticipant(t *testing.T) {
	f := newGroupBuyFixture()
	ctx := context.Background()
	groupBuyID := f.seedGroupBuy(t, 100)

	for _, join := range []struct {
		vendor   string
		quantity int64
	}{{"vendor-a", 50}, {"vendor-b", 30}, {"vendor-c", 20}} {
		require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
			GroupBuyID: groupBuyID, VendorID: join.vendor, Quantity: decimal.NewFromInt(join.quantity),
		}))
	}

	require.NoError(t, f.svc.Complete(ctx, groupBuyID, "supplier-1"))

	assert.Equal(t, domain.StatusFulfilled, f.repo.groupBuys[groupBuyID].Status)
	require.Len(t, f.orders.created, 3)
	for _, vendor := range []string{"vendor-a", "vendor-b", "vendor-c"} {
		assert.Equal(t, 1, f.orders.created["groupbuy:"+groupBuyID+":"+vendor])
	}
	assert.Contains(t, f.publisher.topics, domain.GroupBuyFulfilledTopic)
}

func TestCompleteExcludesCancelledParticipants(t *testing.T) {
	f := newGroupBuyFixture()
	ctx := context.Background()
	groupBuyID := f.seedGroupBuy(t, 100)

	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-a", Quantity: decimal.NewFromInt(40),
	}))
	require.NoError(t, f.svc.Leave(ctx, groupBuyID, "vendor-a"))
	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-b", Quantity: decimal.NewFromInt(60),
	}))
	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-c", Quantity: decimal.NewFromInt(40),
	}))

	require.NoError(t, f.svc.Complete(ctx, groupBuyID, "supplier-1"))

	assert.Len(t, f.orders.created, 2)
	assert.NotContains(t, f.orders.created, "groupbuy:"+groupBuyID+":vendor-a")
}

func TestCompleteRetryOnlyFillsMissingOrders(t *testing.T) {
	f := newGroupBuyFixture()
	ctx := context.Background()
	groupBuyID := f.seedGroupBuy(t, 100)

	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-a", Quantity: decimal.NewFromInt(60),
	}))
	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-b", Quantity: decimal.NewFromInt(40),
	}))

	// 第二张订单创建失败，履约整体报错但第一张已建
	f.orders.failAt = 2
	require.Error(t, f.svc.Complete(ctx, groupBuyID, "supplier-1"))
	assert.Equal(t, domain.StatusFulfilled, f.repo.groupBuys[groupBuyID].Status)
	assert.Len(t, f.orders.created, 1)

	// 重试补齐，幂等键保证已建订单不会重复
	f.orders.failAt = 0
	require.NoError(t, f.svc.Complete(ctx, groupBuyID, "supplier-1"))
	assert.Len(t, f.orders.created, 2)
	for ref, count := range f.orders.created {
		assert.Equal(t, 1, count, "duplicate order for %s", ref)
	}
}

func TestCompleteAuthorization(t *testing.T) {
	f := newGroupBuyFixture()
	ctx := context.Background()
	groupBuyID := f.seedGroupBuy(t, 100)
	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: groupBuyID, VendorID: "vendor-a", Quantity: decimal.NewFromInt(100),
	}))

	err := f.svc.Complete(ctx, groupBuyID, "supplier-2")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	assert.Empty(t, f.orders.created)
}

func TestExpireDueCancelsUnmetGroupBuys(t *testing.T) {
	f := newGroupBuyFixture()
	ctx := context.Background()

	unmet := f.seedGroupBuy(t, 100)
	require.NoError(t, f.svc.Join(ctx, JoinGroupBuyCommand{
		GroupBuyID: unmet, VendorID: "vendor-a", Quantity: decimal.NewFromInt(30),
	}))

	f.clock = f.clock.Add(25 * time.Hour)
	expired, err := f.svc.ExpireDue(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, expired)
	assert.Equal(t, domain.StatusCancelled, f.repo.groupBuys[unmet].Status)
	assert.Contains(t, f.publisher.topics, domain.GroupBuyCancelledTopic)
}
