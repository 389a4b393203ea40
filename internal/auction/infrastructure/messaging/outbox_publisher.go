// Package messaging 提供竞拍领域事件的发件箱发布实现。
package messaging

import (
	"context"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"

	"github.com/wyfcoding/localmarket/internal/auction/domain"
)

type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建基于发件箱的事件发布器。
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

// Publish 将事件写入发件箱。若上下文携带事务则复用之，保证与业务写入同提交。
func (p *outboxPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return p.manager.PublishInTx(ctx, tx, topic, key, event)
	}
	return p.manager.PublishInTx(ctx, p.manager.DB(), topic, key, event)
}
