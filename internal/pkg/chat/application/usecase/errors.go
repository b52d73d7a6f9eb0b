package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use
// case. It is reported to the caller only and never retried server-side.
var ErrPersistence = fmt.Errorf("chat use case persistence error")
