package handler

import (
	"github.com/deppfellow/signal-webhook/internal/model"
	"github.com/deppfellow/signal-webhook/internal/server"
	"github.com/deppfellow/signal-webhook/internal/service"
	"github.com/deppfellow/signal-webhook/internal/validation"
	"github.com/labstack/echo/v4"
)

// ListSignalsRequest holds the query of GET /api/signals.
type ListSignalsRequest struct {
	Symbol string `query:"symbol" validate:"omitempty,symbol"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

func (r *ListSignalsRequest) Validate() error {
	return validation.ValidateStruct(r)
}

// GetSignalRequest holds the path of GET /api/signals/:id.
type GetSignalRequest struct {
	ID int64 `param:"id" validate:"required,min=1"`
}

func (r *GetSignalRequest) Validate() error {
	return validation.ValidateStruct(r)
}

// SignalHandler serves stored signals to operators.
type SignalHandler struct {
	Handler
	signals *service.SignalService
}

// NewSignalHandler constructs a SignalHandler.
func NewSignalHandler(s *server.Server, signals *service.SignalService) *SignalHandler {
	return &SignalHandler{
		Handler: NewHandler(s),
		signals: signals,
	}
}

// List returns the most recent signals, newest first.
func (h *SignalHandler) List(c echo.Context, req *ListSignalsRequest) ([]model.SignalRecord, error) {
	recs, err := h.signals.List(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.SignalRecord{}
	}
	return recs, nil
}

// Get returns one stored signal, or 404.
func (h *SignalHandler) Get(c echo.Context, req *GetSignalRequest) (model.SignalRecord, error) {
	return h.signals.Get(c.Request().Context(), req.ID)
}
