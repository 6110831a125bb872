package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"vitals-monitor/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	insertStatement = `INSERT INTO diagnosis_summaries (session_id, channel, policy, sample_count, mean, min_value, max_value, reference_low, reference_high, unit, classification, report, completed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) ON CONFLICT (session_id) DO NOTHING`
	recentStatement = `SELECT session_id::text, channel, policy, sample_count, mean, min_value, max_value, reference_low, reference_high, unit, classification, report, completed_at FROM diagnosis_summaries WHERE channel = $1 ORDER BY completed_at DESC LIMIT $2`

	defaultLimit = 20
)

// Logger defines the logging behaviour required by the repository.
type Logger interface {
	Printf(ctx context.Context, format string, v ...any)
}

// Repository archives diagnosis summaries in Postgres.
type Repository struct {
	db     *sql.DB
	logger Logger

	closeOnce sync.Once
}

// Open connects to the database, applies the embedded migrations and returns
// the repository.
func Open(ctx context.Context, dsn string, logger Logger) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres repository: DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres repository: open: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres repository: ping: %w", err)
	}

	repo := New(db, logger)
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// New wraps an open database handle. The schema is expected to exist.
func New(db *sql.DB, logger Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Migrate executes the embedded SQL migrations in lexical order. Every
// migration is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("postgres repository: read migrations: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		contents, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("postgres repository: read migration %q: %w", entry.Name(), err)
		}

		statement := strings.TrimSpace(string(contents))
		if statement == "" {
			continue
		}

		if _, err := r.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("postgres repository: apply migration %q: %w", entry.Name(), err)
		}
		r.log(ctx, "migration %s applied", entry.Name())
	}
	return nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.db.Close()
	})
	return err
}

// Add stores a summary. A summary already archived for the same session is
// left untouched.
func (r *Repository) Add(ctx context.Context, summary domain.Summary) error {
	if _, err := uuid.Parse(summary.SessionID); err != nil {
		return fmt.Errorf("postgres repository: invalid session id: %w", err)
	}
	if summary.Channel == "" {
		return errors.New("postgres repository: channel is required")
	}

	_, err := r.db.ExecContext(ctx, insertStatement,
		summary.SessionID,
		summary.Channel,
		summary.Policy.String(),
		summary.Count,
		summary.Mean,
		summary.Min,
		summary.Max,
		summary.Reference.Low,
		summary.Reference.High,
		summary.Unit,
		summary.Classification.String(),
		summary.Text,
		summary.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres repository: add summary: %w", err)
	}
	return nil
}

// Recent returns up to limit summaries of a channel, newest first.
func (r *Repository) Recent(ctx context.Context, channel string, limit int) ([]domain.Summary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := r.db.QueryContext(ctx, recentStatement, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres repository: recent: %w", err)
	}
	defer rows.Close()

	var results []domain.Summary
	for rows.Next() {
		var (
			summary        domain.Summary
			policy         string
			classification string
		)
		if err := rows.Scan(
			&summary.SessionID,
			&summary.Channel,
			&policy,
			&summary.Count,
			&summary.Mean,
			&summary.Min,
			&summary.Max,
			&summary.Reference.Low,
			&summary.Reference.High,
			&summary.Unit,
			&classification,
			&summary.Text,
			&summary.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres repository: scan summary: %w", err)
		}

		if summary.Policy, err = domain.ParsePolicy(policy); err != nil {
			return nil, fmt.Errorf("postgres repository: %w", err)
		}
		summary.Classification = parseClassification(classification)
		summary.CompletedAt = summary.CompletedAt.UTC()
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres repository: recent rows: %w", err)
	}

	if len(results) == 0 {
		return nil, domain.ErrNotFound
	}
	return results, nil
}

func parseClassification(value string) domain.Classification {
	for _, c := range []domain.Classification{
		domain.ClassificationLow,
		domain.ClassificationWithinRange,
		domain.ClassificationHigh,
	} {
		if c.String() == value {
			return c
		}
	}
	return domain.ClassificationNoData
}

func (r *Repository) log(ctx context.Context, format string, v ...any) {
	if r.logger != nil {
		r.logger.Printf(ctx, format, v...)
	}
}

var _ domain.SummaryRepository = (*Repository)(nil)
