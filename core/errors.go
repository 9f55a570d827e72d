package core

import "errors"

var (
	ErrStoreUnavailable    = errors.New("backing store unavailable")
	ErrFalseNegative       = errors.New("inserted token reported as not invalidated")
	ErrInvalidFilterConfig = errors.New("invalid filter configuration")
	ErrInvalidToken        = errors.New("token without aud or jti claims")
	ErrInvalidConfig       = errors.New("invalid configuration")
)
