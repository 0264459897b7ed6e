// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as
// CORS, the POST-only rule and bearer-secret check of the webhook,
// request logging, New Relic tracing and panic recovery.
package middleware
