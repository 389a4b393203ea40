// Package application 实现撮合网关门面。
// 网关把外部请求翻译为各聚合操作，并承担请求幂等与角色校验，
// 身份解析由更外层完成后以 ActorContext 传入。
package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/pkg/logging"

	auctionapp "github.com/wyfcoding/localmarket/internal/auction/application"
	"github.com/wyfcoding/localmarket/internal/gateway/domain"
	groupbuyapp "github.com/wyfcoding/localmarket/internal/groupbuy/application"
	orderapp "github.com/wyfcoding/localmarket/internal/order/application"
	reputationapp "github.com/wyfcoding/localmarket/internal/reputation/application"
)

// Role 调用方角色
type Role string

const (
	RoleVendor   Role = "vendor"   // 买家（采购方）
	RoleSupplier Role = "supplier" // 供应商
)

// ActorContext 已解析的调用方身份。
type ActorContext struct {
	PartyID string
	Role    Role
}

// MatchingGateway 撮合网关门面。
type MatchingGateway struct {
	orders     *orderapp.OrderService
	auctions   *auctionapp.AuctionService
	groupBuys  *groupbuyapp.GroupBuyService
	reputation *reputationapp.ReputationService
	requests   domain.RequestRepository
}

// NewMatchingGateway 构造函数。
func NewMatchingGateway(
	orders *orderapp.OrderService,
	auctions *auctionapp.AuctionService,
	groupBuys *groupbuyapp.GroupBuyService,
	reputation *reputationapp.ReputationService,
	requests domain.RequestRepository,
) *MatchingGateway {
	return &MatchingGateway{
		orders:     orders,
		auctions:   auctions,
		groupBuys:  groupBuys,
		reputation: reputation,
		requests:   requests,
	}
}

func errValidationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}

func (g *MatchingGateway) requireRole(actor ActorContext, role Role) error {
	if actor.PartyID == "" {
		return fmt.Errorf("%w: party id required", domain.ErrValidation)
	}
	if actor.Role != role {
		return fmt.Errorf("%w: operation requires role %s", domain.ErrNotAuthorized, role)
	}
	return nil
}

// idempotent 按请求键去重执行创建类操作。键为空时直接执行。
// 先占用请求键再执行，两个同键并发请求只有一个能执行聚合操作，
// 落败方读到已完成的结果引用，或在首次执行未完成时收到冲突。
// 执行失败释放请求键，同键重试得以再次执行。
func (g *MatchingGateway) idempotent(ctx context.Context, actor ActorContext, requestKey, operation string, execute func() (string, error)) (string, error) {
	if requestKey == "" {
		return execute()
	}

	stored, created, err := g.requests.Save(ctx, &domain.RequestRecord{
		RequestKey: requestKey,
		PartyID:    actor.PartyID,
		Operation:  operation,
	})
	if err != nil {
		return "", err
	}
	if !created {
		if stored.ResultRef == "" {
			return "", fmt.Errorf("%w: request %s is already in flight", domain.ErrConflict, requestKey)
		}
		return stored.ResultRef, nil
	}

	ref, err := execute()
	if err != nil {
		if releaseErr := g.requests.Release(ctx, requestKey); releaseErr != nil {
			logging.Warn(ctx, "failed to release request key", "request_key", requestKey, "error", releaseErr)
		}
		return "", err
	}
	if err := g.requests.SetResult(ctx, requestKey, ref); err != nil {
		return "", err
	}
	return ref, nil
}
