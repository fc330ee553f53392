package domain

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrWrongPassword  = errors.New("wrong password")
	ErrTokenRequired  = errors.New("token required")

	// 存储故障发生在哪一步，对外文案不同
	ErrStoreLookup = errors.New("store lookup failed")
	ErrStoreWrite  = errors.New("store write failed")
)
