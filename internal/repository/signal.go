package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/signal-webhook/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by reads that match no row. It wraps
// pgx.ErrNoRows so sqlerr maps it to a 404.
var ErrNotFound = fmt.Errorf("trading signal not found: %w", pgx.ErrNoRows)

// SignalRepository stores trading signals in the trading_signals table.
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a SignalRepository.
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

const insertSignalQuery = `
	INSERT INTO trading_signals (
		symbol, action, price, quantity, strategy_name, timeframe,
		indicator_values, message, raw_payload
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, symbol, action, created_at`

// Insert saves s and returns the generated id and timestamp.
func (r *SignalRepository) Insert(ctx context.Context, s model.NormalizedSignal) (model.PersistedSignal, error) {
	indicators, err := json.Marshal(s.IndicatorValues)
	if err != nil {
		return model.PersistedSignal{}, fmt.Errorf("postgres: marshal indicator_values: %w", err)
	}

	raw, err := json.Marshal(s.RawPayload)
	if err != nil {
		return model.PersistedSignal{}, fmt.Errorf("postgres: marshal raw_payload: %w", err)
	}

	var (
		out    model.PersistedSignal
		action string
	)
	err = r.pool.QueryRow(ctx, insertSignalQuery,
		s.Symbol, string(s.Action), s.Price, s.Quantity, s.StrategyName, s.Timeframe,
		indicators, s.Message, raw,
	).Scan(&out.ID, &out.Symbol, &action, &out.CreatedAt)
	if err != nil {
		return model.PersistedSignal{}, fmt.Errorf("postgres: insert trading_signal: %w", err)
	}

	out.Action = model.Action(action)
	return out, nil
}

const selectSignalColumns = `
	SELECT id, created_at, symbol, action, price, quantity, strategy_name, timeframe,
		indicator_values, message, raw_payload
	FROM trading_signals`

// GetByID returns the signal with the given id, or ErrNotFound.
func (r *SignalRepository) GetByID(ctx context.Context, id int64) (model.SignalRecord, error) {
	rec, err := scanSignal(r.pool.QueryRow(ctx, selectSignalColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SignalRecord{}, ErrNotFound
		}
		return model.SignalRecord{}, fmt.Errorf("postgres: get trading_signal %d: %w", id, err)
	}
	return rec, nil
}

// ListRecent returns up to limit signals, newest first.
// A non-empty symbol restricts the list to that symbol, matched upper-cased.
func (r *SignalRepository) ListRecent(ctx context.Context, symbol string, limit int) ([]model.SignalRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := selectSignalColumns + ` WHERE ($1 = '' OR symbol = $1) ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, model.UpperSymbol(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trading_signals: %w", err)
	}
	defer rows.Close()

	var out []model.SignalRecord
	for rows.Next() {
		rec, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trading_signal: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate trading_signals: %w", err)
	}
	return out, nil
}

func scanSignal(row pgx.Row) (model.SignalRecord, error) {
	var (
		rec        model.SignalRecord
		action     string
		indicators []byte
		raw        []byte
	)
	err := row.Scan(
		&rec.ID, &rec.CreatedAt, &rec.Symbol, &action, &rec.Price, &rec.Quantity,
		&rec.StrategyName, &rec.Timeframe, &indicators, &rec.Message, &raw,
	)
	if err != nil {
		return model.SignalRecord{}, err
	}
	rec.Action = model.Action(action)

	rec.IndicatorValues = map[string]any{}
	if err := decodeJSON(indicators, &rec.IndicatorValues); err != nil {
		return model.SignalRecord{}, fmt.Errorf("decode indicator_values: %w", err)
	}
	if err := decodeJSON(raw, &rec.RawPayload); err != nil {
		return model.SignalRecord{}, fmt.Errorf("decode raw_payload: %w", err)
	}
	return rec, nil
}

// decodeJSON keeps numbers as json.Number so stored payloads compare equal
// to the decoded request body.
func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
