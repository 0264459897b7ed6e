package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/deppfellow/signal-webhook/internal/errs"
	"github.com/deppfellow/signal-webhook/internal/middleware"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/deppfellow/signal-webhook/internal/service"
	"github.com/deppfellow/signal-webhook/internal/sqlerr"
	"github.com/deppfellow/signal-webhook/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// WebhookHandler receives TradingView alerts on every webhook path.
type WebhookHandler struct {
	Handler
	signals *service.SignalService
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(s *server.Server, signals *service.SignalService) *WebhookHandler {
	return &WebhookHandler{
		Handler: NewHandler(s),
		signals: signals,
	}
}

// Receive parses the body as JSON whatever its Content-Type, ingests the
// signal and answers 200 with the persisted subset.
//
// OPTIONS, the POST-only rule and the bearer check run before this in
// middleware.
func (h *WebhookHandler) Receive(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "webhook").
		Logger()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// BodyLimit reports an oversized body through the reader.
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			return err
		}
		return errs.NewBodyParseError(err)
	}

	raw, err := decodeBody(body)
	if err != nil {
		logger.Warn().
			Err(err).
			Int("body_bytes", len(body)).
			Msg("webhook body is not valid JSON")
		return errs.NewBodyParseError(err)
	}

	saved, err := h.signals.Ingest(c.Request().Context(), raw)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			logger.Warn().
				Str("field", verr.Field).
				Str("kind", string(verr.Kind)).
				Msg(verr.Message)
			return validation.AsHTTPError(err)
		}
		return sqlerr.HandleError(err)
	}

	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		txn.AddAttribute("signal.id", saved.ID)
		txn.AddAttribute("signal.symbol", saved.Symbol)
		txn.AddAttribute("signal.action", string(saved.Action))
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("webhook handled")

	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: saved})
}

// decodeBody decodes exactly one JSON value. Numbers stay json.Number so
// the raw payload is stored as sent.
func decodeBody(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	return v, nil
}
