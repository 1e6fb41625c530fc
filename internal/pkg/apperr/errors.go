package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the core is allowed to react to it.
type Kind string

const (
	KindTransient          Kind = "TRANSIENT_EXTERNAL"
	KindValidation         Kind = "VALIDATION"
	KindConflict           Kind = "CONFLICT"
	KindTurnBudgetExceeded Kind = "TURN_BUDGET_EXCEEDED"
	KindFatal              Kind = "FATAL_INTERNAL"
	KindNotFound           Kind = "NOT_FOUND"
)

var (
	ErrVersionConflict     = errors.New("case version changed concurrently")
	ErrIllegalTransition   = errors.New("illegal case transition")
	ErrDuplicateAction     = errors.New("action already processed")
	ErrCorrectionLimit     = errors.New("correction limit reached")
	ErrCaseExists          = errors.New("case already exists")
	ErrCaseNotFound        = errors.New("case not found")
	ErrTurnBudgetExceeded  = errors.New("reasoning turn budget exceeded")
	ErrBackendUnauthorized = errors.New("reasoning backend rejected credentials")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrBriefInFlight       = errors.New("brief generation in flight on another worker")
)

// Error carries a Kind and the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func Conflict(op string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Err: err}
}

func NotFound(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

func Fatal(op string, err error) error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

func TurnBudget(op string, turns int) error {
	return &Error{
		Kind:    KindTurnBudgetExceeded,
		Op:      op,
		Message: fmt.Sprintf("stopped after %d tool turns", turns),
		Err:     ErrTurnBudgetExceeded,
	}
}

// KindOf returns the kind of the outermost classified error in the chain.
// Unclassified errors are treated as fatal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrIllegalTransition),
		errors.Is(err, ErrDuplicateAction),
		errors.Is(err, ErrCorrectionLimit),
		errors.Is(err, ErrCaseExists):
		return KindConflict
	case errors.Is(err, ErrCaseNotFound):
		return KindNotFound
	case errors.Is(err, ErrTurnBudgetExceeded):
		return KindTurnBudgetExceeded
	case errors.Is(err, ErrBriefInFlight):
		return KindTransient
	}
	return KindFatal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
