// Package apperrors defines the application error type used across the
// inspection service. Errors form trees: a root error is declared once per
// concern (storage, session, inspection, ...) and derived errors refine the
// message while staying matchable with errors.Is against their ancestors.
// Every error carries an HTTP status code so transport adapters can map
// failures without inspecting messages.
package apperrors

// Error is the interface implemented by all application errors. It extends
// the standard error interface with derivation, wrapping, and status code
// management. All methods return Error so calls can be chained.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error                  // derives a fresh error from the current one
	Msg(msg string) Error                  // new message, wraps the original
	MsgErr(msg string, err ...error) Error // new message, wraps extra errors
	Err(err ...error) Error                // attaches additional errors
	SetExpandError(bool) Error             // controls whether ErrorAll expands wrapped errors
	SetStatusCode(int) Error               // sets the HTTP status code
	StatusCode() int                       // returns the HTTP status code
	Prefix(string) Error                   // prepends to the message
	Suffix(string) Error                   // appends to the message
	ErrorAll() string                      // full message including wrapped errors
	UnwrapAll() []error                    // all wrapped errors
}
