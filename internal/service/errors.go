package service

import (
	"errors"
	"fmt"

	"go-trading-post/pkg/validator"

	"gorm.io/gorm"
)

// Sentinel errors, use with errors.Is
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrPartyNotFound       = errors.New("party not found")
	ErrGoodNotFound        = errors.New("good not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStorageFailure      = errors.New("storage failure")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrGoodExists          = errors.New("good already exists")
	ErrPartyExists         = errors.New("party already exists")
	ErrStaleGood           = errors.New("good was modified since it was read")
)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid request: %s", e.Message)
	}
	return fmt.Sprintf("invalid request: field '%s' failed on tag '%s'", e.Field, e.Tag)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// validate runs struct tags and converts the first failure into a ValidationError.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Field: errs[0].FailedField, Tag: errs[0].Tag}
	}
	return nil
}

// InsufficientStockError reports the good that blocked the operation.
type InsufficientStockError struct {
	GoodName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for '%s': available %d, requested %d",
		e.GoodName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// NotFoundError carries what was looked up. Kind is one of the not-found sentinels.
type NotFoundError struct {
	Kind error
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Kind
}

// StorageError wraps a failure of the underlying store. The operation was
// rolled back and is safe to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// DuplicateRequestError is returned when an idempotency key was already used.
type DuplicateRequestError struct {
	Key           string
	TransactionID string
}

func (e *DuplicateRequestError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("duplicate request: key '%s' already produced transaction %s", e.Key, e.TransactionID)
	}
	return fmt.Sprintf("duplicate request: key '%s' is already in use", e.Key)
}

func (e *DuplicateRequestError) Unwrap() error {
	return ErrDuplicateRequest
}

// storageFailure keeps domain errors as they are and wraps anything else.
func storageFailure(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest, ErrPartyNotFound, ErrGoodNotFound, ErrInsufficientStock,
		ErrTransactionNotFound, ErrStorageFailure, ErrDuplicateRequest, ErrGoodExists, ErrPartyExists, ErrStaleGood,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Error codes, stable strings for API responses and metric labels.
const (
	CodeOK                  = "ok"
	CodeInvalidRequest      = "invalid_request"
	CodePartyNotFound       = "party_not_found"
	CodeGoodNotFound        = "good_not_found"
	CodeInsufficientStock   = "insufficient_stock"
	CodeTransactionNotFound = "transaction_not_found"
	CodeDuplicateRequest    = "duplicate_request"
	CodeConflict            = "conflict"
	CodeStorageFailure      = "storage_failure"
)

// ErrorCode classifies err. Unknown errors count as storage failures.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrPartyNotFound):
		return CodePartyNotFound
	case errors.Is(err, ErrGoodNotFound):
		return CodeGoodNotFound
	case errors.Is(err, ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrDuplicateRequest):
		return CodeDuplicateRequest
	case errors.Is(err, ErrGoodExists), errors.Is(err, ErrPartyExists), errors.Is(err, ErrStaleGood):
		return CodeConflict
	default:
		return CodeStorageFailure
	}
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrGoodExists) ||
		errors.Is(err, ErrPartyExists) ||
		errors.Is(err, ErrStaleGood)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPartyNotFound) ||
		errors.Is(err, ErrGoodNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}
