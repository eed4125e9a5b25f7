package user

import "errors"

var (
	errUserNotFound = errors.New("user not found")
	errNoFields     = errors.New("no updatable fields supplied")
)
