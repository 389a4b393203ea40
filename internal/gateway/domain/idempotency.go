// Package domain 定义撮合网关的幂等请求记录。
package domain

import (
	"context"
	"errors"
	"time"
)

// 网关领域错误定义。
var (
	ErrNotFound      = errors.New("request record not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("duplicate request")
)

// RequestRecord 幂等请求记录。外部调用方携带请求键时，
// 执行前先占用该键，同一键的重复请求返回首次执行的结果引用，
// 不再触发聚合操作。ResultRef 为空表示首次执行尚未完成。
type RequestRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	RequestKey string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	PartyID    string    `gorm:"type:varchar(64);index;not null"`
	Operation  string    `gorm:"type:varchar(64);not null"`
	ResultRef  string    `gorm:"type:varchar(128)"`
	CreatedAt  time.Time
}

// TableName 指定表名。
func (RequestRecord) TableName() string { return "gateway_requests" }

// RequestRepository 幂等请求仓储接口。
// Save 对重复键返回已存在的记录和 false，首次写入返回 true。
// SetResult 在执行成功后回填结果引用，Release 在执行失败后释放请求键。
type RequestRepository interface {
	Save(ctx context.Context, record *RequestRecord) (*RequestRecord, bool, error)
	Get(ctx context.Context, requestKey string) (*RequestRecord, error)
	SetResult(ctx context.Context, requestKey, resultRef string) error
	Release(ctx context.Context, requestKey string) error
}
