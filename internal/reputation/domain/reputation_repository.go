package domain

import "context"

// ReputationRepository 信誉记录仓储接口。
type ReputationRepository interface {
	// 按参与方 ID 获取记录，不存在时返回 ErrNotFound
	Get(ctx context.Context, partyID string) (*ReputationRecord, error)
	// 新建记录
	Create(ctx context.Context, record *ReputationRecord) error
	// 带乐观锁更新记录，版本不匹配时返回 ErrConflict
	Update(ctx context.Context, record *ReputationRecord) error
	// 写入（或覆盖同 slot 的）历史条目
	SaveScoreEntry(ctx context.Context, entry *ScoreEntry) error
	// 按时间顺序列出历史条目
	ListScoreEntries(ctx context.Context, partyID string) ([]*ScoreEntry, error)
}

// TxManager 事务管理接口，保证记录更新与历史写入的原子性。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 领域事件发布接口。
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
