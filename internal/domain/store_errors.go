package domain

import (
	"errors"
	"fmt"
)

type StoreErrorKind string

const (
	StoreErrorTransient  StoreErrorKind = "transient"
	StoreErrorConstraint StoreErrorKind = "constraint"
	StoreErrorNotFound   StoreErrorKind = "not_found"
)

// StoreError - ошибка одной операции над строкой хранилища
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrRowNotFound - строка уже удалена или никогда не существовала
var ErrRowNotFound = errors.New("member row not found")

func NewStoreError(kind StoreErrorKind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// StoreErrorKindOf возвращает тип ошибки хранилища; неизвестные ошибки считаются временными
func StoreErrorKindOf(err error) StoreErrorKind {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	if errors.Is(err, ErrRowNotFound) {
		return StoreErrorNotFound
	}
	return StoreErrorTransient
}

func IsRowNotFound(err error) bool {
	return StoreErrorKindOf(err) == StoreErrorNotFound
}
