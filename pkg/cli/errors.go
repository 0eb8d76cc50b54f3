package cli

// ErrorCode defines error types for CLI operations
type ErrorCode string

const (
	InvalidArguments ErrorCode = "InvalidArguments"
	ConfigInvalid    ErrorCode = "ConfigInvalid"
	RunFailed        ErrorCode = "RunFailed"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
