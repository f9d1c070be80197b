// Package request turns a form submission or a hand-built request into the
// bytes that go on the wire.
//
// A WebRequest holds a validated parameter set. Form-derived requests work on
// a snapshot of the form and reject values the form could not produce;
// hand-built requests accept anything. Prepare encodes the parameters as a
// query string, a url-encoded body or a streamed multipart body.
package request
