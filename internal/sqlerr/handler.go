package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/signal-webhook/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the mapped Code for err, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return MapCode(pgerr.Code)
	}
	return Other
}

// ConvertPgError converts a pgconn.PgError into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode creates a machine code of the form <DOMAIN>_<ACTION>.
//
// Example:
//
//	trading_signals + CheckViolation => TRADING_SIGNAL_INVALID
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)

	// Naive singularization: "TRADING_SIGNALS" -> "TRADING_SIGNAL".
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidText, NumericOutOfRange:
		action = "INVALID"
	case QueryCanceled:
		action = "TIMEOUT"
	case ConnectionFailure:
		action = "UNAVAILABLE"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// describe produces an operator-facing sentence for an *Error,
// rendered under details in development.
func describe(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)
	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)
	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)
	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"
	default:
		return sqlErr.Message
	}
}

// getEntityName infers an entity name from table/column data.
//
// Priority rules:
//  1. column ending in "_id": its base name ("signal_id" -> "Signal").
//  2. table name, singularized if it ends with "s".
//  3. "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case into Title Case ("strategy_name" -> "Strategy Name").
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// Details is the diagnostic payload attached to storage failures.
type Details struct {
	Code     string `json:"code"`
	SQLState string `json:"sqlstate,omitempty"`
	Column   string `json:"column,omitempty"`
	Reason   string `json:"reason"`
}

// HandleError converts any error returned by the signal store into the
// application-level error the webhook answers with.
//
// Output:
//   - *errs.HTTPError: returned unchanged.
//   - ErrNoRows: 404 (reads only).
//   - pgconn.PgError, timeouts, anything else: 500 STORAGE_FAILURE, with
//     the classified cause attached as details and as the wrapped error.
//
// No storage error is ever retried.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Trading signal not found", true).WithCause(err)
	}

	storageErr := errs.NewStorageError().WithCause(err)

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)
		return storageErr.WithDetails(Details{
			Code:     generateErrorCode(sqlErr.TableName, sqlErr.Code),
			SQLState: sqlErr.DatabaseCode,
			Column:   strings.ToLower(sqlErr.ColumnName),
			Reason:   describe(sqlErr),
		}).WithCause(sqlErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return storageErr.WithDetails(Details{
			Code:   generateErrorCode("", QueryCanceled),
			Reason: "Insert timed out",
		})
	}

	return storageErr.WithDetails(Details{
		Code:   generateErrorCode("", Other),
		Reason: err.Error(),
	})
}
