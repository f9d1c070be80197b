// Package errs defines the single tagged error type shared by the form,
// request and conversation layers.
//
// Every failure carries a Kind so callers can branch with errors.Is against
// the per-kind sentinels:
//
//	if errors.Is(err, errs.ErrIllegalParameterValue) {
//		var e *errs.Error
//		errors.As(err, &e)
//		fmt.Println(e.Allowed)
//	}
package errs

import (
	"fmt"
	"strings"
)

// Kind identifies a class of failure
type Kind int

const (
	KindUnknown Kind = iota

	// Parameter identity
	KindNoSuchParameter
	KindUnusedParameterValue

	// Parameter value
	KindIllegalParameterValue
	KindMissingParameterValue
	KindSingleValuedParameter
	KindUnusedUploadFile

	// Parameter type
	KindIllegalFileParameter
	KindIllegalNonFileParameter
	KindMultipartFormRequired

	// Control state
	KindDisabledSubmitButton
	KindIllegalSubmitButton
	KindIllegalButtonPosition

	// Transport / protocol
	KindTooManyRedirects
	KindNotFound
	KindServerError
	KindAuthorizationRequired
	KindTransport
)

var kindNames = map[Kind]string{
	KindUnknown:                 "unknown",
	KindNoSuchParameter:         "no_such_parameter",
	KindUnusedParameterValue:    "unused_parameter_value",
	KindIllegalParameterValue:   "illegal_parameter_value",
	KindMissingParameterValue:   "missing_parameter_value",
	KindSingleValuedParameter:   "single_valued_parameter",
	KindUnusedUploadFile:        "unused_upload_file",
	KindIllegalFileParameter:    "illegal_file_parameter",
	KindIllegalNonFileParameter: "illegal_non_file_parameter",
	KindMultipartFormRequired:   "multipart_form_required",
	KindDisabledSubmitButton:    "disabled_submit_button",
	KindIllegalSubmitButton:     "illegal_submit_button",
	KindIllegalButtonPosition:   "illegal_button_position",
	KindTooManyRedirects:        "too_many_redirects",
	KindNotFound:                "not_found",
	KindServerError:             "server_error",
	KindAuthorizationRequired:   "authorization_required",
	KindTransport:               "transport",
}

// String returns the snake_case name of the kind, used as a metrics label
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Validation reports whether the kind is raised by form or request validation
func (k Kind) Validation() bool {
	return k >= KindNoSuchParameter && k <= KindIllegalButtonPosition
}

// Error is the one error type produced by this module
type Error struct {
	Kind Kind

	// Name is the offending parameter or control name
	Name string
	// Value is the single offending value, if any
	Value string
	// Values holds the supplied values when more than one is relevant
	Values []string
	// Allowed lists the legal values of an option-constrained control
	Allowed []string
	// Used and Supplied are the file counts for KindUnusedUploadFile
	Used     int
	Supplied int

	// URL and Status describe the request for protocol failures
	URL    string
	Status int

	// Err is the underlying cause
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Kind {
	case KindNoSuchParameter:
		return fmt.Sprintf("no parameter named '%s'", e.Name)
	case KindUnusedParameterValue:
		return fmt.Sprintf("attempted to assign to parameter '%s' the extraneous value '%s'", e.Name, e.Value)
	case KindIllegalParameterValue:
		return fmt.Sprintf("may not set parameter '%s' to '%s'; permitted values are [%s]",
			e.Name, e.Value, strings.Join(e.Allowed, ", "))
	case KindMissingParameterValue:
		return fmt.Sprintf("parameter '%s' must have the value [%s]; attempted to set it to [%s]",
			e.Name, strings.Join(e.Allowed, ", "), strings.Join(e.Values, ", "))
	case KindSingleValuedParameter:
		return fmt.Sprintf("parameter '%s' may only have one value; got %d", e.Name, len(e.Values))
	case KindUnusedUploadFile:
		return fmt.Sprintf("attempted to upload %d files using parameter '%s' which allows only %d",
			e.Supplied, e.Name, e.Used)
	case KindIllegalFileParameter:
		return fmt.Sprintf("parameter '%s' is not a file parameter and may not be set to a file value", e.Name)
	case KindIllegalNonFileParameter:
		return fmt.Sprintf("parameter '%s' is a file parameter and may not be set to a text value", e.Name)
	case KindMultipartFormRequired:
		return fmt.Sprintf("the request does not use multipart encoding, which is required to upload file '%s'", e.Name)
	case KindDisabledSubmitButton:
		return fmt.Sprintf("submit button '%s' is disabled and may not be used to submit the form", e.Name)
	case KindIllegalSubmitButton:
		return fmt.Sprintf("submit button '%s' (value '%s') is not part of the form", e.Name, e.Value)
	case KindIllegalButtonPosition:
		return fmt.Sprintf("may not set a click position on non-image button '%s'", e.Name)
	case KindTooManyRedirects:
		return fmt.Sprintf("too many redirects (stopped at %s)", e.URL)
	case KindNotFound:
		return fmt.Sprintf("HTTP %d: not found (url: %s)", e.Status, e.URL)
	case KindServerError:
		return fmt.Sprintf("HTTP %d: server error (url: %s)", e.Status, e.URL)
	case KindAuthorizationRequired:
		return fmt.Sprintf("HTTP %d: authorization required (url: %s)", e.Status, e.URL)
	case KindTransport:
		if e.Err != nil {
			return fmt.Sprintf("transport failure (url: %s): %v", e.URL, e.Err)
		}
		return fmt.Sprintf("transport failure (url: %s)", e.URL)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "unknown error"
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrNoSuchParameter         = &Error{Kind: KindNoSuchParameter}
	ErrUnusedParameterValue    = &Error{Kind: KindUnusedParameterValue}
	ErrIllegalParameterValue   = &Error{Kind: KindIllegalParameterValue}
	ErrMissingParameterValue   = &Error{Kind: KindMissingParameterValue}
	ErrSingleValuedParameter   = &Error{Kind: KindSingleValuedParameter}
	ErrUnusedUploadFile        = &Error{Kind: KindUnusedUploadFile}
	ErrIllegalFileParameter    = &Error{Kind: KindIllegalFileParameter}
	ErrIllegalNonFileParameter = &Error{Kind: KindIllegalNonFileParameter}
	ErrMultipartFormRequired   = &Error{Kind: KindMultipartFormRequired}
	ErrDisabledSubmitButton    = &Error{Kind: KindDisabledSubmitButton}
	ErrIllegalSubmitButton     = &Error{Kind: KindIllegalSubmitButton}
	ErrIllegalButtonPosition   = &Error{Kind: KindIllegalButtonPosition}
	ErrTooManyRedirects        = &Error{Kind: KindTooManyRedirects}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrServerError             = &Error{Kind: KindServerError}
	ErrAuthorizationRequired   = &Error{Kind: KindAuthorizationRequired}
	ErrTransport               = &Error{Kind: KindTransport}
)

// KindOf extracts the kind of err, or KindUnknown
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// NoSuchParameter reports a name the form does not define
func NoSuchParameter(name string) *Error {
	return &Error{Kind: KindNoSuchParameter, Name: name}
}

// UnusedParameterValue reports a value no control could absorb
func UnusedParameterValue(name, value string) *Error {
	return &Error{Kind: KindUnusedParameterValue, Name: name, Value: value}
}

// IllegalParameterValue reports a value outside the allowed option set
func IllegalParameterValue(name, value string, allowed []string) *Error {
	return &Error{Kind: KindIllegalParameterValue, Name: name, Value: value, Allowed: allowed}
}

// MissingParameterValue reports an attempt to drop a preset value
func MissingParameterValue(name string, required []string, supplied []string) *Error {
	return &Error{Kind: KindMissingParameterValue, Name: name, Allowed: required, Values: supplied}
}

// SingleValuedParameter reports multiple values for a single-valued control
func SingleValuedParameter(name string, values []string) *Error {
	return &Error{Kind: KindSingleValuedParameter, Name: name, Values: values}
}

// UnusedUploadFile reports more files than file controls
func UnusedUploadFile(name string, used, supplied int) *Error {
	return &Error{Kind: KindUnusedUploadFile, Name: name, Used: used, Supplied: supplied}
}

// IllegalFileParameter reports a file assigned to a non-file control
func IllegalFileParameter(name string) *Error {
	return &Error{Kind: KindIllegalFileParameter, Name: name}
}

// IllegalNonFileParameter reports text assigned to a file control
func IllegalNonFileParameter(name string) *Error {
	return &Error{Kind: KindIllegalNonFileParameter, Name: name}
}

// MultipartFormRequired reports a file upload on a url-encoded request
func MultipartFormRequired(name string) *Error {
	return &Error{Kind: KindMultipartFormRequired, Name: name}
}

// DisabledSubmitButton reports use of a disabled button
func DisabledSubmitButton(name, value string) *Error {
	return &Error{Kind: KindDisabledSubmitButton, Name: name, Value: value}
}

// IllegalSubmitButton reports a button that does not belong to the form
func IllegalSubmitButton(name, value string) *Error {
	return &Error{Kind: KindIllegalSubmitButton, Name: name, Value: value}
}

// IllegalButtonPosition reports a click position without an image button
func IllegalButtonPosition(name string) *Error {
	return &Error{Kind: KindIllegalButtonPosition, Name: name}
}

// TooManyRedirects reports an exhausted redirect budget
func TooManyRedirects(url string) *Error {
	return &Error{Kind: KindTooManyRedirects, URL: url}
}

// HTTPStatus maps a strict-mode failure status to its error, or nil
func HTTPStatus(url string, status int) *Error {
	switch {
	case status == 401:
		return &Error{Kind: KindAuthorizationRequired, URL: url, Status: status}
	case status == 404:
		return &Error{Kind: KindNotFound, URL: url, Status: status}
	case status >= 500:
		return &Error{Kind: KindServerError, URL: url, Status: status}
	default:
		return nil
	}
}

// Transport wraps a transport failure
func Transport(url string, err error) *Error {
	return &Error{Kind: KindTransport, URL: url, Err: err}
}
