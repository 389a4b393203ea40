package domain

import "errors"

var (
	// ErrNotFound 订单或报价不存在
	ErrNotFound = errors.New("order not found")
	// ErrNotAuthorized 操作者缺少该操作所需的角色或所有权
	ErrNotAuthorized = errors.New("actor not authorized")
	// ErrInvalidTransition 状态机拒绝该转移
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrBiddingClosed 订单已不在开标阶段
	ErrBiddingClosed = errors.New("bidding closed")
	// ErrDeadlinePassed 已过拼单截止时间
	ErrDeadlinePassed = errors.New("deadline passed")
	// ErrGroupFull 参与人数已达上限
	ErrGroupFull = errors.New("group is full")
	// ErrDuplicateParticipant 同一买家重复加入
	ErrDuplicateParticipant = errors.New("vendor already joined")
	// ErrValidation 非法数量/价格/角色
	ErrValidation = errors.New("invalid order input")
	// ErrConflict 并发更新冲突，调用方应重读后重试
	ErrConflict = errors.New("order version conflict")
)
