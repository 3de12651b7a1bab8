package errors

import "fmt"

// Error codes
const (
	CodeWardenError = "WARDEN_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
	CodeCache       = "CACHE_ERROR"
	CodeStorage     = "STORAGE_ERROR"
	CodeResolver    = "RESOLVER_ERROR"
	CodeService     = "SERVICE_ERROR"
)

type WardenError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *WardenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *WardenError) Unwrap() error {
	return e.Cause
}

func NewWardenError(message, code string, context map[string]any) *WardenError {
	return &WardenError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *WardenError) WithCause(cause error) *WardenError {
	e.Cause = cause
	return e
}

type ValidationError struct {
	*WardenError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		WardenError: &WardenError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*WardenError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		WardenError: &WardenError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type StorageError struct {
	*WardenError
	Operation string
	Entity    string
}

func NewStorageError(message, operation, entity string, cause error) *StorageError {
	return &StorageError{
		WardenError: &WardenError{
			Message: message,
			Code:    CodeStorage,
			Context: map[string]any{
				"operation": operation,
				"entity":    entity,
			},
			Cause: cause,
		},
		Operation: operation,
		Entity:    entity,
	}
}

type ResolverError struct {
	*WardenError
	Query string
}

func NewResolverError(message, query string, cause error) *ResolverError {
	return &ResolverError{
		WardenError: &WardenError{
			Message: message,
			Code:    CodeResolver,
			Context: map[string]any{
				"query": query,
			},
			Cause: cause,
		},
		Query: query,
	}
}

type ServiceError struct {
	*WardenError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		WardenError: &WardenError{
			Message: message,
			Code:    CodeService,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}
