package errors

import "errors"

var ErrNotFound = errors.New("record not found")

var ErrUnauthorized = errors.New("admin credentials required")
var ErrForbidden = errors.New("admin api is disabled")
