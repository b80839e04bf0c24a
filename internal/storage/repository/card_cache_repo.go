package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CardCacheRow is one persisted card fact keyed by its normalized name.
type CardCacheRow struct {
	Name          string
	DisplayName   string
	TypeLine      string
	OracleText    *string
	ColorIdentity []string
	CMC           float64
	ManaCost      string
	Legalities    map[string]string
	UpdatedAt     time.Time
}

// CardCacheRepository persists card facts between runs.
type CardCacheRepository interface {
	// Get returns the row for a normalized name, or nil when absent.
	Get(ctx context.Context, name string) (*CardCacheRow, error)

	// GetMany returns every present row for the given normalized names.
	GetMany(ctx context.Context, names []string) (map[string]*CardCacheRow, error)

	// Upsert inserts or replaces a row. Last write wins.
	Upsert(ctx context.Context, row *CardCacheRow) error

	// UpsertMany writes all rows in one transaction.
	UpsertMany(ctx context.Context, rows []*CardCacheRow) error

	// DeleteOlderThan removes rows last updated before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of cached rows.
	Count(ctx context.Context) (int, error)
}

type cardCacheRepository struct {
	db *sql.DB
}

// NewCardCacheRepository creates a new card cache repository.
func NewCardCacheRepository(db *sql.DB) CardCacheRepository {
	return &cardCacheRepository{db: db}
}

const cardCacheColumns = `name, display_name, type_line, oracle_text, color_identity, cmc, mana_cost, legalities, updated_at`

const upsertCardSQL = `
	INSERT INTO card_cache (` + cardCacheColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		display_name = excluded.display_name,
		type_line = excluded.type_line,
		oracle_text = excluded.oracle_text,
		color_identity = excluded.color_identity,
		cmc = excluded.cmc,
		mana_cost = excluded.mana_cost,
		legalities = excluded.legalities,
		updated_at = excluded.updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCardRow(s rowScanner) (*CardCacheRow, error) {
	var (
		row        CardCacheRow
		oracle     sql.NullString
		colors     string
		legalities string
		updatedAt  int64
	)
	if err := s.Scan(&row.Name, &row.DisplayName, &row.TypeLine, &oracle, &colors,
		&row.CMC, &row.ManaCost, &legalities, &updatedAt); err != nil {
		return nil, err
	}
	if oracle.Valid {
		text := oracle.String
		row.OracleText = &text
	}
	if err := json.Unmarshal([]byte(colors), &row.ColorIdentity); err != nil {
		return nil, fmt.Errorf("failed to decode color identity for %s: %w", row.Name, err)
	}
	if err := json.Unmarshal([]byte(legalities), &row.Legalities); err != nil {
		return nil, fmt.Errorf("failed to decode legalities for %s: %w", row.Name, err)
	}
	row.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &row, nil
}

func (r *cardCacheRepository) Get(ctx context.Context, name string) (*CardCacheRow, error) {
	row, err := scanCardRow(r.db.QueryRowContext(ctx,
		"SELECT "+cardCacheColumns+" FROM card_cache WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached card %s: %w", name, err)
	}
	return row, nil
}

func (r *cardCacheRepository) GetMany(ctx context.Context, names []string) (map[string]*CardCacheRow, error) {
	result := make(map[string]*CardCacheRow, len(names))
	if len(names) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+cardCacheColumns+" FROM card_cache WHERE name IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanCardRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cached card: %w", err)
		}
		result[row.Name] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached cards: %w", err)
	}
	return result, nil
}

func upsertArgs(row *CardCacheRow) ([]any, error) {
	colors := row.ColorIdentity
	if colors == nil {
		colors = []string{}
	}
	colorJSON, err := json.Marshal(colors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode color identity: %w", err)
	}
	legalities := row.Legalities
	if legalities == nil {
		legalities = map[string]string{}
	}
	legalJSON, err := json.Marshal(legalities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode legalities: %w", err)
	}
	updated := row.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	var oracle any
	if row.OracleText != nil {
		oracle = *row.OracleText
	}
	return []any{row.Name, row.DisplayName, row.TypeLine, oracle, string(colorJSON),
		row.CMC, row.ManaCost, string(legalJSON), updated.Unix()}, nil
}

func (r *cardCacheRepository) Upsert(ctx context.Context, row *CardCacheRow) error {
	args, err := upsertArgs(row)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertCardSQL, args...); err != nil {
		return fmt.Errorf("failed to upsert cached card %s: %w", row.Name, err)
	}
	return nil
}

func (r *cardCacheRepository) UpsertMany(ctx context.Context, rows []*CardCacheRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertCardSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args, err := upsertArgs(row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert cached card %s: %w", row.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card upserts: %w", err)
	}
	return nil
}

func (r *cardCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM card_cache WHERE updated_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune card cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}

func (r *cardCacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM card_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached cards: %w", err)
	}
	return n, nil
}
