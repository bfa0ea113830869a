package ollama

import "fmt"

// unreachableError signals the daemon did not answer at all, so callers can
// distinguish "not running" from "running but failing".
type unreachableError struct {
	host string
	err  error
}

func (e unreachableError) Error() string {
	return fmt.Sprintf("daemon unreachable at %s: %v", e.host, e.err)
}
func (e unreachableError) Unwrap() error { return e.err }

func errUnreachable(host string, err error) error { return unreachableError{host: host, err: err} }

// IsUnreachable reports whether err indicates the daemon could not be reached.
func IsUnreachable(err error) bool {
	_, ok := err.(unreachableError)
	return ok
}

// modelNotFoundError indicates a requested model is not in the daemon's registry.
type modelNotFoundError struct{ name string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.name }

func errModelNotFound(name string) error { return modelNotFoundError{name: name} }

// IsModelNotFound reports whether err indicates a missing model.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// downloadError marks a failed artifact pull from the remote registry.
type downloadError struct {
	source string
	err    error
}

func (e downloadError) Error() string { return fmt.Sprintf("download %s: %v", e.source, e.err) }
func (e downloadError) Unwrap() error { return e.err }

func errDownload(source string, err error) error { return downloadError{source: source, err: err} }

// IsDownloadFailed reports whether err came from the artifact pull path.
func IsDownloadFailed(err error) bool {
	_, ok := err.(downloadError)
	return ok
}

// registrationError marks a daemon rejection while registering a build manifest.
type registrationError struct {
	name string
	err  error
}

func (e registrationError) Error() string { return fmt.Sprintf("register %s: %v", e.name, e.err) }
func (e registrationError) Unwrap() error { return e.err }

func errRegistration(name string, err error) error { return registrationError{name: name, err: err} }

// IsRegistrationFailed reports whether err came from model registration.
func IsRegistrationFailed(err error) bool {
	_, ok := err.(registrationError)
	return ok
}

// daemonStatusError carries a non-2xx daemon response for an op.
type daemonStatusError struct {
	op     string
	status int
	body   string
}

func (e daemonStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("daemon %s: status %d", e.op, e.status)
	}
	return fmt.Sprintf("daemon %s: status %d: %s", e.op, e.status, e.body)
}

func errDaemonStatus(op string, status int, body string) error {
	return daemonStatusError{op: op, status: status, body: body}
}
