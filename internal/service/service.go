// Package service contains the business logic.
//
// It sits between the handler and repository layers: it turns a decoded
// webhook body into a stored trading signal and hands saved signals to
// the notification queue.
package service
