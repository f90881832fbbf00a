package auth

import "github.com/pkg/errors"

var (
	ErrNotJWT       = errors.New("not a JWT")
	ErrMissingStore = errors.New("session store is required")
	ErrMissingAPI   = errors.New("backend client is required")
)
