package domain

import "errors"

// ErrNotFound is returned (wrapped) by stores when a user, budget or
// transaction does not exist.
var ErrNotFound = errors.New("not found")
