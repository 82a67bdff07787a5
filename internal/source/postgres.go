package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sartorproj/steelcast/timeseries"
)

// DBQuerier is the subset of pgxpool.Pool used by Postgres.
type DBQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	selectObservations = `SELECT observation_date, value FROM index_observations WHERE series_id = $1 ORDER BY observation_date`

	upsertObservation = `INSERT INTO index_observations (series_id, observation_date, value)
VALUES ($1, $2, $3)
ON CONFLICT (series_id, observation_date) DO UPDATE SET value = EXCLUDED.value`

	createObservations = `CREATE TABLE IF NOT EXISTS index_observations (
    series_id        TEXT             NOT NULL,
    observation_date DATE             NOT NULL,
    value            DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (series_id, observation_date)
)`
)

// Postgres reads observations of one series from index_observations.
type Postgres struct {
	db       DBQuerier
	seriesID string
}

// NewPostgres returns a source for seriesID.
func NewPostgres(db DBQuerier, seriesID string) *Postgres {
	return &Postgres{db: db, seriesID: seriesID}
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Load reads every observation of the series in date order.
func (p *Postgres) Load(ctx context.Context) (*timeseries.Series, error) {
	rows, err := p.db.Query(ctx, selectObservations, p.seriesID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	s := &timeseries.Series{Name: p.seriesID}
	for rows.Next() {
		var (
			date  time.Time
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		s.Timestamps = append(s.Timestamps, date)
		s.Values = append(s.Values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}

	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: series_id %s", ErrSeriesNotFound, p.seriesID)
	}
	return s, nil
}

// EnsureSchema creates index_observations when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createObservations); err != nil {
		return fmt.Errorf("create index_observations: %w", err)
	}
	return nil
}

// Save upserts every observation of s under the source's series id and
// returns the number of rows written.
func (p *Postgres) Save(ctx context.Context, s *timeseries.Series) (int64, error) {
	var written int64
	for i, v := range s.Values {
		tag, err := p.db.Exec(ctx, upsertObservation, p.seriesID, s.Timestamps[i], v)
		if err != nil {
			return written, fmt.Errorf("upsert %s: %w", s.Timestamps[i].Format("2006-01-02"), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}
