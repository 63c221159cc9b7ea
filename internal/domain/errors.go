package domain

import "fmt"

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Это позволяет использовать errors.Is()
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

const (
	CodeCapacityExceeded         = "CAPACITY_EXCEEDED"
	CodeInvalidMember            = "INVALID_MEMBER"
	CodeCreatorImmutable         = "CREATOR_IMMUTABLE"
	CodeReconciliationInProgress = "RECONCILIATION_IN_PROGRESS"
	CodeConvergenceFailure       = "CONVERGENCE_FAILURE"
	CodeTimeout                  = "TIMEOUT"
	CodeNotFound                 = "NOT_FOUND"
	CodeForbidden                = "FORBIDDEN"
	CodeBadRequest               = "BAD_REQUEST"
)

var (
	// ErrCapacityExceeded - участников больше, чем допускает секция
	ErrCapacityExceeded = &DomainError{
		Code:    CodeCapacityExceeded,
		Message: "group member limit exceeded",
	}

	// ErrInvalidMember - некорректная запись в списке участников
	ErrInvalidMember = &DomainError{
		Code:    CodeInvalidMember,
		Message: "invalid member entry",
	}

	// ErrCreatorImmutable - создателя группы нельзя изменять или удалять
	ErrCreatorImmutable = &DomainError{
		Code:    CodeCreatorImmutable,
		Message: "group creator cannot be changed",
	}

	// ErrReconciliationInProgress - для группы уже идет синхронизация
	ErrReconciliationInProgress = &DomainError{
		Code:    CodeReconciliationInProgress,
		Message: "member update already in progress for this group",
	}

	// ErrConvergenceFailure - состав группы не удалось привести к желаемому
	ErrConvergenceFailure = &DomainError{
		Code:    CodeConvergenceFailure,
		Message: "some member changes could not be saved",
	}

	// ErrTimeout - синхронизация не уложилась в отведенное время
	ErrTimeout = &DomainError{
		Code:    CodeTimeout,
		Message: "member update timed out",
	}

	// ErrNotFound - ресурс не найден
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "resource not found",
	}

	// ErrForbidden - вызывающий не является создателем группы
	ErrForbidden = &DomainError{
		Code:    CodeForbidden,
		Message: "only the group creator can change members",
	}
)

// NewNotFoundError создает ошибку NOT_FOUND с дополнительным контекстом
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvalidMemberError создает ошибку INVALID_MEMBER с индексом записи
func NewInvalidMemberError(index int, reason string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidMember,
		Message: fmt.Sprintf("member #%d: %s", index, reason),
	}
}

// NewBadRequestError создает ошибку BAD_REQUEST
func NewBadRequestError(message string) *DomainError {
	return &DomainError{
		Code:    CodeBadRequest,
		Message: message,
	}
}

// ErrGroupExists - у создателя уже есть группа в этой секции
var ErrGroupExists = &DomainError{
	Code:    "GROUP_EXISTS",
	Message: "creator already has a group in this section",
}
