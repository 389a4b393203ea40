package domain

import "errors"

var (
	// ErrNotFound 信誉记录不存在
	ErrNotFound = errors.New("reputation record not found")
	// ErrValidation 非法参数（评分越界等）
	ErrValidation = errors.New("invalid reputation input")
	// ErrConflict 并发更新冲突，调用方应重读后重试
	ErrConflict = errors.New("reputation record version conflict")
)
