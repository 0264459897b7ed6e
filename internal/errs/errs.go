// Package errs defines the error types that reach HTTP clients.
//
// Every failure of the webhook pipeline ends up as an *HTTPError so the
// central error handler can render one consistent envelope:
//
//	{ "success": false, "error": "...", "message": "...", "code": "..." }
package errs
