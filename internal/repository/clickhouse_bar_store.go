package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	pkgch "CryptoSignal/pkg/clickhouse"
	applogger "CryptoSignal/pkg/logger"
)

const insertChunk = 2000

// CHBarStore archives fetched bars in ClickHouse and serves them back as a BarSource.
type CHBarStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.BarStore = (*CHBarStore)(nil)

func NewCHBarStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHBarStore {
	if table == "" {
		table = "bars"
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHBarStore{ch: ch, db: ch.DB(), table: table, l: l}
}

func (s *CHBarStore) Name() string { return "clickhouse" }

// Schema returns the DDL for the bar table. ReplacingMergeTree collapses re-archived periods.
func Schema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol   LowCardinality(String),
            interval LowCardinality(String),
            ts       DateTime64(3, 'UTC'),
            open     Float64,
            high     Float64,
            low      Float64,
            close    Float64,
            volume   Float64,
            inserted DateTime DEFAULT now()
        )
        ENGINE = ReplacingMergeTree(inserted)
        ORDER BY (symbol, interval, ts)
    `, table)}
}

func (s *CHBarStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, Schema(s.table))
}

func (s *CHBarStore) StoreBars(ctx context.Context, symbol, interval string, bars []models.Bar) error {
	for start := 0; start < len(bars); start += insertChunk {
		end := start + insertChunk
		if end > len(bars) {
			end = len(bars)
		}
		q, args := insertQuery(s.table, symbol, interval, bars[start:end])
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store_bars error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.String("interval", interval),
				applogger.Error(err),
			)
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func insertQuery(table, symbol, interval string, bars []models.Bar) (string, []interface{}) {
	values := make([]string, len(bars))
	args := make([]interface{}, 0, len(bars)*8)
	for i, b := range bars {
		values[i] = "(?, ?, ?, ?, ?, ?, ?, ?)"
		args = append(args, symbol, interval, b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, interval, ts, open, high, low, close, volume) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

// Fetch returns the latest limit bars, oldest first.
func (s *CHBarStore) Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND interval = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), symbol, interval, limit)
	if err != nil {
		s.l.Error("clickhouse fetch_bars query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.String("interval", interval),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, limit)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverse(out)

	s.l.Debug("clickhouse fetch_bars ok",
		applogger.String("symbol", symbol),
		applogger.String("interval", interval),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func reverse(bars []models.Bar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}

func (s *CHBarStore) Health(ctx context.Context) error { return s.ch.Health(ctx) }

func (s *CHBarStore) Close() error { return s.ch.Close() }
