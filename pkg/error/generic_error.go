package error

// GenericError is implemented by every typed error so the recovery
// middleware can translate it into an HTTP response.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
