// Package handler is the first layer after the router.
//
// It reads requests, hands webhook bodies and typed read requests to the
// service layer and writes the success envelope. Failures are returned
// to the global error handler, which writes every error envelope.
package handler
