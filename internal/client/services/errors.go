package services

import "errors"

// ErrSessionTerminated is returned by an in-flight Login or Register when a
// Logout or Expire happened before it could commit.
var ErrSessionTerminated = errors.New("session terminated")
