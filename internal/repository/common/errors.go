package common

import "errors"

// Общие ошибки для всех репозиториев
var (
	ErrAlreadyExists = errors.New("entity already exists")
	ErrStaleStatus   = errors.New("status changed since read")
)
