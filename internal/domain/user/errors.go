package user

import "errors"

// ErrUserNotFound is returned when no account matches the id.
var ErrUserNotFound = errors.New("user not found")
