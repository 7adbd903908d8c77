package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jask/tabsync/internal/database"
	"github.com/jask/tabsync/internal/database/repository"
	"github.com/jask/tabsync/internal/directive"
	"github.com/jask/tabsync/internal/engine"
)

// SelectRequest is a user tap. ServedID wins when both fields are set.
type SelectRequest struct {
	ServedID string
	Identity engine.Identity
}

// Renderer receives every update the coordinator applies.
type Renderer interface {
	Render(engine.Update)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(engine.Update)

func (f RendererFunc) Render(u engine.Update) { f(u) }

// Coordinator is the single owner of the engine. All directives and
// selections go through Run, which applies them one at a time.
type Coordinator struct {
	Engine    *engine.Engine
	Journal   *repository.DirectiveRepo
	Snapshots *repository.SnapshotRepo
	Renderer  Renderer
	Log       *zap.Logger

	// Now defaults to database.Now.
	Now func() time.Time

	// JournalSeq is the last journal sequence written. Snapshots are stamped
	// with it; seed it from Restore.
	JournalSeq int64
}

// Run applies directives and selections until ctx is done or both channels
// are closed.
func (c *Coordinator) Run(ctx context.Context, directives <-chan []byte, selections <-chan SelectRequest) error {
	c.logger().Info("coordinator started", zap.String("mode", c.Engine.Mode().String()))
	c.render(c.current())
	for directives != nil || selections != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-directives:
			if !ok {
				directives = nil
				continue
			}
			_, _ = c.HandleDirective(ctx, payload)
		case req, ok := <-selections:
			if !ok {
				selections = nil
				continue
			}
			c.HandleSelect(ctx, req)
		}
	}
	return nil
}

// HandleDirective decodes and applies one wire message. Rejected messages
// leave the engine untouched; the error is logged and returned.
func (c *Coordinator) HandleDirective(ctx context.Context, payload []byte) (engine.Update, error) {
	log := c.logger()
	entry := repository.JournalEntry{
		ID:         uuid.NewString(),
		ReceivedAt: c.now(),
		Payload:    payload,
	}

	d, err := directive.Decode(payload)
	var u engine.Update
	if err == nil {
		entry.Kind = d.Kind()
		if t, ok := d.(directive.Tabbed); ok {
			entry.Active = t.Active
			if len(t.Tabs) == 1 {
				log.Warn("tabbed directive with a single tab", zap.String("tab", t.Tabs[0].ServedID))
			}
		}
		u, err = c.Engine.Accept(d)
	}
	if err != nil {
		entry.Status = repository.StatusRejected
		entry.Error = err.Error()
		log.Warn("directive rejected", zap.Error(err), zap.Int("bytes", len(payload)))
		c.persist(ctx, &entry, false)
		return engine.Update{}, fmt.Errorf("apply directive: %w", err)
	}

	entry.Status = repository.StatusAccepted
	entry.Transition = string(u.Transition)
	entry.CreatedCount = len(u.Created)
	entry.DestroyedCount = len(u.Destroyed)
	log.Info("directive accepted",
		zap.String("kind", entry.Kind),
		zap.String("transition", string(u.Transition)),
		zap.Int("containers", len(u.Containers)),
		zap.Int("created", len(u.Created)),
		zap.Int("destroyed", len(u.Destroyed)),
		zap.Int("deprecated", len(u.Deprecations)),
	)
	if u.SingleTab {
		log.Warn("tabbed outcome left a single container; next directive is read as bootstrap mode",
			zap.String("served_id", u.SelectedContainer().ServedID))
	}
	c.persist(ctx, &entry, true)
	c.render(u)
	return u, nil
}

// HandleSelect applies a user tap. Unknown targets are ignored.
func (c *Coordinator) HandleSelect(ctx context.Context, req SelectRequest) engine.Update {
	var u engine.Update
	target := req.ServedID
	if target != "" {
		u = c.Engine.SelectServed(target)
	} else {
		if ct, ok := c.Engine.Lookup(req.Identity); ok {
			target = ct.ServedID
		}
		u = c.Engine.SelectIdentity(req.Identity)
	}
	if !u.Changed() {
		c.logger().Debug("selection ignored", zap.String("served_id", target), zap.String("identity", string(req.Identity)))
		return u
	}
	c.logger().Debug("selection applied",
		zap.String("transition", string(u.Transition)),
		zap.String("served_id", target),
		zap.String("selected", string(u.Selected)),
		zap.Int("destroyed", len(u.Destroyed)),
	)
	c.persist(ctx, nil, true)
	c.render(u)
	return u
}

// persist journals entry (when given) and optionally saves a snapshot.
// Storage is best effort: failures are logged, the engine stays authoritative.
func (c *Coordinator) persist(ctx context.Context, entry *repository.JournalEntry, snapshot bool) {
	var err error
	if entry != nil && c.Journal != nil {
		seq, jerr := c.Journal.Append(ctx, *entry)
		if jerr == nil {
			c.JournalSeq = seq
		}
		err = multierr.Append(err, jerr)
	}
	if snapshot && c.Snapshots != nil {
		err = multierr.Append(err, c.Snapshots.Save(ctx, ToSnapshot(c.Engine.Snapshot(), c.JournalSeq, c.now())))
	}
	if err != nil {
		c.logger().Error("persist state", zap.Error(err))
	}
}

// current reports every container as created so a renderer that starts
// empty allocates backing content for all of them.
func (c *Coordinator) current() engine.Update {
	s := c.Engine.Snapshot()
	return engine.Update{
		Transition:   engine.TransitionUnchanged,
		Containers:   s.Containers,
		Selected:     s.Selected,
		Created:      identitiesOf(s.Containers),
		Deprecations: s.Deprecations,
	}
}

func (c *Coordinator) render(u engine.Update) {
	if c.Renderer != nil {
		c.Renderer.Render(u)
	}
}

func (c *Coordinator) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return database.Now()
}

func identitiesOf(cs []engine.Container) []engine.Identity {
	out := make([]engine.Identity, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Identity)
	}
	return out
}
