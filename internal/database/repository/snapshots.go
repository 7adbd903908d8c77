package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jask/tabsync/internal/database"
)

var snapshotTables = []string{"snapshot_containers", "snapshot_deprecations", "snapshot_meta"}

// SnapshotRepo stores the latest engine snapshot. Only one is kept.
type SnapshotRepo struct{ db *sql.DB }

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

// Save replaces the stored snapshot.
func (r *SnapshotRepo) Save(ctx context.Context, s Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := saveSnapshot(ctx, tx, s); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func saveSnapshot(ctx context.Context, tx *sql.Tx, s Snapshot) error {
	for _, table := range snapshotTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	for _, c := range s.Containers {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_containers(identity, position, served_id, title, icon, path, selected)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
			c.Identity, c.Position, c.ServedID, c.Title, c.Icon, c.Path, c.Selected); err != nil {
			return err
		}
	}
	for _, d := range s.Deprecations {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_deprecations(served_id, level, replacement_id, replacement_title, replacement_icon, replacement_path)
		VALUES(?, ?, ?, ?, ?, ?)`,
			d.ServedID, d.Level, d.ReplacementID, d.ReplacementTitle, d.ReplacementIcon, d.ReplacementPath); err != nil {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO snapshot_meta(id, saved_at, journal_seq) VALUES(1, ?, ?)`, s.SavedAt, s.JournalSeq)
	return err
}

// Load returns the stored snapshot, or nil when none was saved.
func (r *SnapshotRepo) Load(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	err := r.db.QueryRowContext(ctx, `SELECT saved_at, journal_seq FROM snapshot_meta WHERE id = 1`).Scan(&s.SavedAt, &s.JournalSeq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT identity, position, served_id, title, icon, path, selected FROM snapshot_containers ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c ContainerRow
		if err := rows.Scan(&c.Identity, &c.Position, &c.ServedID, &c.Title, &c.Icon, &c.Path, &c.Selected); err != nil {
			return nil, err
		}
		s.Containers = append(s.Containers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	drows, err := r.db.QueryContext(ctx, `SELECT served_id, level, replacement_id, replacement_title, replacement_icon, replacement_path FROM snapshot_deprecations ORDER BY served_id ASC`)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var d DeprecationRow
		if err := drows.Scan(&d.ServedID, &d.Level, &d.ReplacementID, &d.ReplacementTitle, &d.ReplacementIcon, &d.ReplacementPath); err != nil {
			return nil, err
		}
		s.Deprecations = append(s.Deprecations, d)
	}
	return &s, drows.Err()
}

// Clear removes the stored snapshot.
func (r *SnapshotRepo) Clear(ctx context.Context) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		for _, table := range snapshotTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
}
