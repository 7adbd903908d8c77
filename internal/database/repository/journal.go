package repository

import (
	"context"
	"database/sql"
	"errors"
)

// DirectiveRepo journals received directives.
type DirectiveRepo struct{ db *sql.DB }

func NewDirectiveRepo(db *sql.DB) *DirectiveRepo { return &DirectiveRepo{db: db} }

// Append stores e and assigns the next sequence number, which is returned.
func (r *DirectiveRepo) Append(ctx context.Context, e JournalEntry) (int64, error) {
	var seq int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM directive_journal`).Scan(&seq); err != nil {
		return 0, err
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO directive_journal(
	 id, seq, received_at, kind, active, payload, status, transition, error, created_count, destroyed_count)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, seq, e.ReceivedAt, e.Kind, e.Active, e.Payload, e.Status, e.Transition, e.Error, e.CreatedCount, e.DestroyedCount)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

const journalColumns = `id, seq, received_at, kind, active, payload, status, transition, error, created_count, destroyed_count`

// Recent returns up to limit entries, newest first.
func (r *DirectiveRepo) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+journalColumns+` FROM directive_journal ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JournalEntry
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastAccepted returns the newest accepted entry, or nil when there is none.
func (r *DirectiveRepo) LastAccepted(ctx context.Context) (*JournalEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM directive_journal WHERE status = ? ORDER BY seq DESC LIMIT 1`, StatusAccepted)
	e, err := scanJournal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Prune keeps the newest keep entries.
func (r *DirectiveRepo) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM directive_journal WHERE seq <= (SELECT COALESCE(MAX(seq), 0) FROM directive_journal) - ?`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJournal(s scanner) (JournalEntry, error) {
	var e JournalEntry
	err := s.Scan(&e.ID, &e.Seq, &e.ReceivedAt, &e.Kind, &e.Active, &e.Payload, &e.Status, &e.Transition, &e.Error, &e.CreatedCount, &e.DestroyedCount)
	return e, err
}
