package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/deppfellow/signal-webhook/internal/config"
	"github.com/deppfellow/signal-webhook/internal/database"
	"github.com/deppfellow/signal-webhook/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// setupTestRepo connects to SIGNAL_TEST_DATABASE_URL, migrates it and
// truncates trading_signals. Tests are skipped when the variable is unset.
func setupTestRepo(t *testing.T) *SignalRepository {
	t.Helper()

	dsn := os.Getenv("SIGNAL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SIGNAL_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	logger := zerolog.Nop()
	cfg := &config.Config{Database: config.DatabaseConfig{URL: dsn}}
	if err := database.Migrate(ctx, &logger, cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE trading_signals RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return NewSignalRepository(pool)
}

func payload(t *testing.T, body string) model.Payload {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var p model.Payload
	if err := dec.Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return p
}

func TestSignalRepositoryInsertAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p := payload(t, `{"symbol":"btcusd","action":"buy","price":50000.25,"indicators":{"rsi":28.5},"exchange":"BINANCE"}`)
	s := model.Normalize(p)

	saved, err := repo.Insert(ctx, s)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected a generated id")
	}
	if saved.Symbol != "BTCUSD" || saved.Action != model.ActionBuy {
		t.Errorf("saved = %+v", saved)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := repo.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted := got.Persisted(); persisted.ID != saved.ID || persisted.Symbol != saved.Symbol || !persisted.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("Persisted() = %+v, want %+v", persisted, saved)
	}
	if got.Price == nil || *got.Price != 50000.25 {
		t.Errorf("Price = %v", got.Price)
	}
	if got.Quantity != nil {
		t.Errorf("Quantity = %v, want NULL", *got.Quantity)
	}
	if !reflect.DeepEqual(got.RawPayload, p) {
		t.Errorf("raw_payload round trip:\n got  %v\n want %v", got.RawPayload, p)
	}
	if got.IndicatorValues["rsi"] != json.Number("28.5") {
		t.Errorf("indicator rsi = %v", got.IndicatorValues["rsi"])
	}
}

func TestSignalRepositoryGetMissing(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), 999999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSignalRepositoryListRecent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, body := range []string{
		`{"symbol":"ethusd","action":"buy"}`,
		`{"symbol":"btcusd","action":"sell"}`,
		`{"symbol":"ethusd","action":"close"}`,
	} {
		if _, err := repo.Insert(ctx, model.Normalize(payload(t, body))); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	all, err := repo.ListRecent(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Action != model.ActionClose {
		t.Errorf("newest first: got %q", all[0].Action)
	}

	eth, err := repo.ListRecent(ctx, "ethusd", 10)
	if err != nil {
		t.Fatalf("ListRecent(ethusd): %v", err)
	}
	if len(eth) != 2 {
		t.Errorf("len = %d, want 2", len(eth))
	}

	one, err := repo.ListRecent(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListRecent(limit 1): %v", err)
	}
	if len(one) != 1 {
		t.Errorf("len = %d, want 1", len(one))
	}
}
