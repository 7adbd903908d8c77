package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jask/tabsync/internal/database/repository"
	"github.com/jask/tabsync/internal/directive"
	"github.com/jask/tabsync/internal/engine"
)

// ToSnapshot converts engine state into storage rows.
func ToSnapshot(s engine.State, journalSeq int64, savedAt time.Time) repository.Snapshot {
	out := repository.Snapshot{SavedAt: savedAt, JournalSeq: journalSeq}
	for i, c := range s.Containers {
		out.Containers = append(out.Containers, repository.ContainerRow{
			Identity: string(c.Identity),
			Position: i,
			ServedID: c.ServedID,
			Title:    c.Title,
			Icon:     c.Icon,
			Path:     c.Path,
			Selected: c.Identity == s.Selected,
		})
	}
	for id, entry := range s.Deprecations {
		row := repository.DeprecationRow{ServedID: id, Level: string(entry.Level)}
		if r := entry.Replacement; r != nil {
			row.ReplacementID = &r.ServedID
			row.ReplacementTitle = &r.Title
			row.ReplacementIcon = &r.Icon
			row.ReplacementPath = &r.Path
		}
		out.Deprecations = append(out.Deprecations, row)
	}
	return out
}

// FromSnapshot converts storage rows back into engine state.
func FromSnapshot(s repository.Snapshot) engine.State {
	out := engine.State{Deprecations: make(engine.Deprecations, len(s.Deprecations))}
	for _, row := range s.Containers {
		out.Containers = append(out.Containers, engine.Container{
			Identity: engine.Identity(row.Identity),
			ServedID: row.ServedID,
			Title:    row.Title,
			Icon:     row.Icon,
			Path:     row.Path,
		})
		if row.Selected {
			out.Selected = engine.Identity(row.Identity)
		}
	}
	for _, row := range s.Deprecations {
		entry := engine.DeprecationEntry{Level: directive.Deprecation(row.Level)}
		if row.ReplacementID != nil {
			entry.Replacement = &directive.TabDescriptor{
				ServedID: *row.ReplacementID,
				Title:    deref(row.ReplacementTitle),
				Icon:     deref(row.ReplacementIcon),
				Path:     deref(row.ReplacementPath),
				Replaces: row.ServedID,
			}
		}
		out.Deprecations[row.ServedID] = entry
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Restore rebuilds the engine on cold start. Without a usable snapshot a
// fresh engine is returned. With one, the containers keep their identities
// and adopt the order of the last accepted directive, which reconciliation
// defers while the app is running. The returned sequence is the journal
// position the restored state reflects, for Coordinator.JournalSeq.
func Restore(ctx context.Context, snapshots *repository.SnapshotRepo, journal *repository.DirectiveRepo, gen engine.IdentityGenerator, log *zap.Logger) (*engine.Engine, int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if snapshots == nil {
		return engine.New(gen), 0, nil
	}
	snap, err := snapshots.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		log.Info("no stored snapshot; starting in bootstrap mode")
		return engine.New(gen), 0, nil
	}
	e, err := engine.Restore(FromSnapshot(*snap), gen)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidState) {
			log.Warn("discarding stored snapshot", zap.Error(err))
			return engine.New(gen), 0, nil
		}
		return nil, 0, err
	}
	seq := snap.JournalSeq
	log.Info("restored snapshot",
		zap.Int("containers", len(snap.Containers)),
		zap.Time("saved_at", snap.SavedAt),
		zap.Int64("journal_seq", seq),
	)

	if journal == nil || e.Mode() == engine.ModeBootstrap {
		return e, seq, nil
	}
	last, err := journal.LastAccepted(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load last directive: %w", err)
	}
	if last == nil {
		return e, seq, nil
	}
	if last.Seq > seq {
		// the directive was journaled but its snapshot never landed
		log.Warn("snapshot is older than the journal", zap.Int64("journal_seq", seq), zap.Int64("last_accepted", last.Seq))
		seq = last.Seq
	}
	d, err := directive.Decode(last.Payload)
	if err != nil {
		log.Warn("stored directive no longer decodes", zap.Int64("seq", last.Seq), zap.Error(err))
		return e, seq, nil
	}
	t, ok := d.(directive.Tabbed)
	if !ok {
		return e, seq, nil
	}
	res := engine.Filter(t.Tabs, t.Active, e.Containers(), e.Selected())
	order := make([]string, 0, len(res.Tabs))
	for _, tab := range res.Tabs {
		order = append(order, tab.ServedID)
	}
	if e.AdoptOrder(order) {
		log.Info("adopted deferred tab order", zap.Strings("order", order))
	}
	return e, seq, nil
}
