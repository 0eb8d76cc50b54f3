package snapshot

type ErrorCode string

const (
	// IOFailure means the snapshot directory or file could not be written.
	IOFailure   ErrorCode = "IOFailure"
	NotFound    ErrorCode = "NotFound"
	Locked      ErrorCode = "Locked"
	InvalidName ErrorCode = "InvalidName"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}
