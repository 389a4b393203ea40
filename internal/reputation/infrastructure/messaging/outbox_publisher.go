package messaging

import (
	"context"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"

	"github.com/wyfcoding/localmarket/internal/reputation/domain"
)

// outboxPublisher 基于 Outbox 模式的事件发布实现，事件随业务事务一并落库。
type outboxPublisher struct{ manager *outbox.Manager }

// NewOutboxPublisher 创建 OutboxPublisher 实例。
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

// Publish 发布事件。上下文携带事务时写入同一事务，否则直接落库。
func (p *outboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return p.manager.PublishInTx(ctx, tx, topic, key, event)
	}
	return p.manager.PublishInTx(ctx, p.manager.DB(), topic, key, event)
}
