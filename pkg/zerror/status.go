package zerror

// Status classifies a ZError independently of the transport that reports it.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusInvalidArgument
	StatusNotFound
	StatusConflict
	StatusInternal
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusConflict:
		return "CONFLICT"
	case StatusInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}
