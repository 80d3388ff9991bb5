package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// QuotaExceededError means the user's daily message allowance is spent.
// Recoverable by waiting for the next ledger day or upgrading tier.
type QuotaExceededError struct {
	ErrorMessage
	Used  int
	Limit int
}

// UpstreamTimeoutError means the model provider did not finish streaming
// within the configured wall-clock budget.
type UpstreamTimeoutError struct {
	ErrorMessage
}

// ExternalServiceError wraps transport or non-2xx failures from collaborators
// (the generation provider, primarily). Transient errors map to 503.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
}

// UnknownToolError means the model asked for a tool the registry never declared.
type UnknownToolError struct {
	ErrorMessage
	Tool string
}

// InvalidArgumentsError means a tool call's arguments failed to decode or validate.
type InvalidArgumentsError struct {
	ErrorMessage
	Tool string
}

type DatabaseError struct {
	ErrorMessage
	Operation string
	Wrapped   error
}

func (e *DatabaseError) Unwrap() error { return e.Wrapped }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewQuotaExceededError(used, limit int) *QuotaExceededError {
	return &QuotaExceededError{
		ErrorMessage: ErrorMessage{Message: "daily message limit reached"},
		Used:         used,
		Limit:        limit,
	}
}

func NewUpstreamTimeoutError(message string) *UpstreamTimeoutError {
	return &UpstreamTimeoutError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewExternalServiceError(service, message string, transient bool) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
	}
}

func NewUnknownToolError(tool string) *UnknownToolError {
	return &UnknownToolError{
		ErrorMessage: ErrorMessage{Message: "unknown tool: " + tool},
		Tool:         tool,
	}
}

func NewInvalidArgumentsError(tool, message string) *InvalidArgumentsError {
	return &InvalidArgumentsError{
		ErrorMessage: ErrorMessage{Message: message},
		Tool:         tool,
	}
}

func NewDatabaseError(operation, message string, wrapped error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Wrapped:      wrapped,
	}
}
