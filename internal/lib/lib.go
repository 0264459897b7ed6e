// Package lib holds the integrations that do not fit strictly into
// other layers: background job processing (Redis/Asynq) and the email
// client (Resend) used for signal notifications.
package lib
