package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/signal-webhook/internal/config"
	"github.com/deppfellow/signal-webhook/internal/model"
	"github.com/deppfellow/signal-webhook/internal/validation"
	"github.com/rs/zerolog"
)

// SignalStore persists and reads trading signals.
type SignalStore interface {
	Insert(ctx context.Context, s model.NormalizedSignal) (model.PersistedSignal, error)
	GetByID(ctx context.Context, id int64) (model.SignalRecord, error)
	ListRecent(ctx context.Context, symbol string, limit int) ([]model.SignalRecord, error)
}

// Notifier is told about every saved signal.
type Notifier interface {
	NotifySignal(ctx context.Context, saved model.PersistedSignal, s model.NormalizedSignal) error
}

// SignalService runs the ingestion pipeline for one webhook body.
type SignalService struct {
	store         SignalStore
	notifier      Notifier
	rules         config.SignalConfig
	insertTimeout time.Duration
}

// NewSignalService builds a SignalService. notifier may be nil.
func NewSignalService(store SignalStore, notifier Notifier, cfg *config.Config) *SignalService {
	return &SignalService{
		store:         store,
		notifier:      notifier,
		rules:         cfg.Signal,
		insertTimeout: cfg.Database.InsertTimeout,
	}
}

// Ingest validates raw, normalizes it and stores it.
//
// Validation failures are returned as *validation.Error. A failed insert
// is returned wrapped and is never retried. A failed notification is
// only logged.
func (s *SignalService) Ingest(ctx context.Context, raw any) (model.PersistedSignal, error) {
	logger := zerolog.Ctx(ctx)

	payload, err := validation.ValidateSignal(raw)
	if err != nil {
		return model.PersistedSignal{}, err
	}

	if s.rules.StrictSymbolFormat {
		if sym, _ := payload["symbol"].(string); !validation.IsValidSymbolFormat(sym) {
			return model.PersistedSignal{}, &validation.Error{
				Kind:    validation.KindInvalidValue,
				Field:   "symbol",
				Message: "Invalid symbol format",
			}
		}
	}

	signal := model.Normalize(payload)

	if !validation.IsPriceInRange(signal.Price, s.rules.MinPrice, s.rules.MaxPrice) {
		if s.rules.PriceRangePolicy == config.PriceRangeReject {
			return model.PersistedSignal{}, &validation.Error{
				Kind:    validation.KindInvalidValue,
				Field:   "price",
				Message: "Price out of expected range",
			}
		}

		logger.Warn().
			Str("symbol", signal.Symbol).
			Float64("price", *signal.Price).
			Float64("min_price", s.rules.MinPrice).
			Float64("max_price", s.rules.MaxPrice).
			Msg("price out of expected range")
	}

	insertCtx := ctx
	if s.insertTimeout > 0 {
		var cancel context.CancelFunc
		insertCtx, cancel = context.WithTimeout(ctx, s.insertTimeout)
		defer cancel()
	}

	saved, err := s.store.Insert(insertCtx, signal)
	if err != nil {
		return model.PersistedSignal{}, fmt.Errorf("save trading signal: %w", err)
	}

	logger.Info().
		Int64("signal_id", saved.ID).
		Str("symbol", saved.Symbol).
		Str("action", string(saved.Action)).
		Msg("trading signal saved")

	if s.notifier != nil {
		if err := s.notifier.NotifySignal(ctx, saved, signal); err != nil {
			logger.Error().
				Err(err).
				Int64("signal_id", saved.ID).
				Msg("failed to enqueue signal notification")
		}
	}

	return saved, nil
}

// Get returns one stored signal.
func (s *SignalService) Get(ctx context.Context, id int64) (model.SignalRecord, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.SignalRecord{}, fmt.Errorf("get trading signal: %w", err)
	}
	return rec, nil
}

// List returns the most recent stored signals, optionally for one symbol.
func (s *SignalService) List(ctx context.Context, symbol string, limit int) ([]model.SignalRecord, error) {
	recs, err := s.store.ListRecent(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list trading signals: %w", err)
	}
	return recs, nil
}
