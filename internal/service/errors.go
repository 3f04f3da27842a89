package service

import "errors"

// カスタムエラー定義
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrStreamNotFound     = errors.New("stream not found")
	ErrNotStreamOwner     = errors.New("forbidden: not allowed to stop this stream")
)
