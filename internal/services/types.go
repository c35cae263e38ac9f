package services

import "errors"

// Store keys. The whole directory lives under one record; each creator's
// aggregate lives under a per-user key derived from the normalized username.
const usersKey = "survey_app_users"

func dataKey(username string) string {
	return "survey_app_data_" + username
}

// RecordStore is the slice of the kv store the services need.
type RecordStore interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
}

type ErrorCode string

const (
	ErrorInvalid       ErrorCode = "invalid"
	ErrorNotFound      ErrorCode = "not_found"
	ErrorConflict      ErrorCode = "conflict"
	ErrorUnauthorized  ErrorCode = "unauthorized"
	ErrorOwnerNotFound ErrorCode = "owner_not_found"
	ErrorBadGateway    ErrorCode = "bad_gateway"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error { return &ServiceError{Code: ErrorInvalid, Message: msg} }

func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }

func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }

func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

// NewOwnerNotFoundError marks a response submitted against a directory entry
// that has no record at all. Distinct from not_found: a deleted survey still
// has a record with survey=null.
func NewOwnerNotFoundError(msg string) error {
	return &ServiceError{Code: ErrorOwnerNotFound, Message: msg}
}

func NewBadGatewayError(msg string) error {
	return &ServiceError{Code: ErrorBadGateway, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
