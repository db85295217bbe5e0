package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"
)

// CHPriceStore implements PriceStore backed by the ClickHouse candle tables.
type CHPriceStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

// NewCHPriceStore reads candles from <database>.candles_<tf>.
func NewCHPriceStore(db *sql.DB, database string) *CHPriceStore {
	if database == "" {
		database = "signaldesk"
	}
	return &CHPriceStore{db: db, database: database}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	table, err := s.tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
		SELECT bucket, symbol, open, high, low, close, vol
		FROM %s
		WHERE symbol = ? AND bucket >= ? AND bucket <= ?
		ORDER BY bucket ASC
	`
	out, err := s.query(ctx, "get_candles", table, fmt.Sprintf(qtpl, table), symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	return out, nil
}

func (s *CHPriceStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	table, err := s.tableForTF(tf)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("get latest candles: limit must be positive, got %d", n)
	}
	const qtpl = `
		SELECT bucket, symbol, open, high, low, close, vol
		FROM %s
		WHERE symbol = ?
		ORDER BY bucket DESC
		LIMIT ?
	`
	out, err := s.query(ctx, "latest_candles", table, fmt.Sprintf(qtpl, table), symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *CHPriceStore) query(ctx context.Context, op, table, q string, args ...interface{}) ([]models.Candle, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr(op+" query error", table, err)
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 512)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			s.logErr(op+" scan error", table, err)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		s.logErr(op+" rows error", table, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse "+op+" ok",
			applogger.String("table", table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) logErr(msg, table string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+msg, applogger.String("table", table), applogger.Error(err))
}

func (s *CHPriceStore) tableForTF(tf domrepo.Timeframe) (string, error) {
	if !tf.Valid() {
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
	return fmt.Sprintf("%s.candles_%s", s.database, tf), nil
}
