package util

import (
	"errors"
	"fmt"
)

// 错误类别，所有业务错误都可以通过 errors.Is 归到其中一类
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidState  = errors.New("invalid state")
	ErrValidation    = errors.New("validation error")
	ErrWindowClosed  = errors.New("window closed")
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// DomainError 带类别的业务错误，Message 可以直接展示给用户
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func NewError(kind error, format string, args ...interface{}) error {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...interface{}) error {
	return NewError(ErrValidation, format, args...)
}

var (
	ErrUserNotFound     = &DomainError{ErrNotFound, "user not found"}
	ErrClassNotFound    = &DomainError{ErrNotFound, "class not found"}
	ErrExamNotFound     = &DomainError{ErrNotFound, "exam not found"}
	ErrQuestionNotFound = &DomainError{ErrNotFound, "question not found"}
	ErrAttemptNotFound  = &DomainError{ErrNotFound, "attempt not found"}

	ErrPermissionDenied = &DomainError{ErrForbidden, "permission denied"}
	ErrNotClassTeacher  = &DomainError{ErrForbidden, "only the class teacher or an admin can manage this exam"}
	ErrNotEnrolled      = &DomainError{ErrForbidden, "you are not enrolled in this class"}
	ErrNotAttemptOwner  = &DomainError{ErrForbidden, "this attempt belongs to another student"}

	ErrExamNotDraft         = &DomainError{ErrInvalidState, "exam can only be modified while in draft"}
	ErrExamNotPublished     = &DomainError{ErrInvalidState, "exam is not published"}
	ErrExamCancelled        = &DomainError{ErrInvalidState, "exam has been cancelled"}
	ErrAttemptInProgress    = &DomainError{ErrInvalidState, "you already have an attempt in progress"}
	ErrAttemptNotInProgress = &DomainError{ErrInvalidState, "attempt is not in progress"}
	ErrAttemptExpired       = &DomainError{ErrInvalidState, "attempt time limit has passed, it was closed with no score"}
	ErrConcurrentStart      = &DomainError{ErrInvalidState, "another attempt was started at the same time, please retry"}

	ErrNoQuestions = &DomainError{ErrValidation, "exam must have at least one question"}

	ErrExamWindowClosed = &DomainError{ErrWindowClosed, "exam is not available at this time"}

	ErrAttemptLimitReached = &DomainError{ErrQuotaExceeded, "maximum number of attempts reached"}
)

// ErrAttemptConflict 存储层唯一约束冲突，只在开考的重试路径内部使用，不会返回给调用方
var ErrAttemptConflict = errors.New("attempt number conflict")
