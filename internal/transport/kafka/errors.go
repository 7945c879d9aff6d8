package kafka

// PermanentError marks a message as undeliverable: the consumer logs it and
// commits the offset instead of retrying forever.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return "permanent: " + e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the consumer drops the message after logging.
func Permanent(err error) error {
	return PermanentError{Err: err}
}
