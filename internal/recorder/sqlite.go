package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"MarketPulse/internal/indicator"
)

// SQLiteRecorder persists refresh history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.SugaredLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.SugaredLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers don't block the refresh loop's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infow("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			period       TEXT NOT NULL,
			price        REAL,
			change       REAL,
			change_pct   REAL,
			volume       REAL,
			volume_ratio REAL,
			ma_20        REAL,
			ma_50        REAL,
			rsi          REAL,
			high_52w     REAL,
			low_52w      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			kind      TEXT NOT NULL,
			threshold REAL,
			price     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an absent indicator to SQL NULL instead of a fake zero.
func nullable(set map[string]float64, key string) interface{} {
	if v, ok := set[key]; ok {
		return v
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(rec *SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO snapshots
		(timestamp, symbol, period, price, change, change_pct, volume, volume_ratio,
		 ma_20, ma_50, rsi, high_52w, low_52w)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol, string(rec.Period),
		rec.Metrics.LatestPrice, rec.Metrics.PriceChange, rec.Metrics.PriceChangePct,
		rec.Metrics.LatestVolume, rec.Metrics.VolumeRatio,
		nullable(rec.Indicators, indicator.KeyMA20),
		nullable(rec.Indicators, indicator.KeyMA50),
		nullable(rec.Indicators, indicator.KeyRSI),
		nullable(rec.Indicators, indicator.KeyHigh52),
		nullable(rec.Indicators, indicator.KeyLow52),
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(rec *AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alerts (timestamp, symbol, kind, threshold, price)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), rec.Symbol, rec.Kind, rec.Threshold, rec.Price,
	)
	return err
}

func (r *SQLiteRecorder) PruneBefore(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, table := range []string{"snapshots", "alerts"} {
		res, err := r.db.Exec("DELETE FROM "+table+" WHERE timestamp < ?", cutoff.Unix())
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
