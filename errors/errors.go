package errors

import "fmt"

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrDuplicateRoom   = fmt.Errorf("chat room already exists")
	ErrProfileNotFound = fmt.Errorf("user not found")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
)
