package domain

import "errors"

// 竞拍领域错误定义。
var (
	ErrNotFound      = errors.New("auction not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrAuctionEnded  = errors.New("auction ended")
	ErrBidTooLow     = errors.New("bid too low")
	ErrInvalidState  = errors.New("invalid auction state")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("concurrent modification conflict")
)
