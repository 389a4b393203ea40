package domain

import "errors"

// 团购领域错误定义。
var (
	ErrNotFound                = errors.New("group buy not found")
	ErrNotAuthorized           = errors.New("not authorized")
	ErrGroupBuyClosed          = errors.New("group buy closed")
	ErrDeadlinePassed          = errors.New("deadline passed")
	ErrPaymentAlreadyConfirmed = errors.New("payment already confirmed")
	ErrTargetNotMet            = errors.New("target quantity not met")
	ErrInvalidState            = errors.New("invalid group buy state")
	ErrValidation              = errors.New("validation failed")
	ErrConflict                = errors.New("concurrent modification conflict")
)
