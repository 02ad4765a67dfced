package topics

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"clipforge/internal/services"
	"clipforge/internal/state"
)

// History tracks which topics have been seen and which have already been
// turned into videos, backed by the shared state database.
type History struct {
	db *sql.DB
}

func NewHistory(store *state.Store) *History {
	return &History{db: store.DB()}
}

// RecordSeen upserts candidates into the history table, keeping the highest
// score observed for each normalized key.
func (h *History) RecordSeen(ctx context.Context, candidates []Candidate) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, cand := range candidates {
		query, args, err := sq.Insert("topic_history").
			Columns("normalized", "title", "source", "score", "first_seen").
			Values(cand.Key(), cand.Text, cand.Source, cand.Score, now).
			Suffix("ON CONFLICT(normalized) DO UPDATE SET score = MAX(score, excluded.score)").
			ToSql()
		if err != nil {
			return services.Wrap(services.ErrValidation, "", "history", "build upsert", err)
		}
		if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
			return services.Wrap(services.ErrTransient, "", "history", "record seen", err)
		}
	}
	return nil
}

// FilterUsed drops candidates whose normalized key was already produced.
func (h *History) FilterUsed(ctx context.Context, candidates []Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	keys := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		keys = append(keys, cand.Key())
	}

	query, args, err := sq.Select("normalized").
		From("topic_history").
		Where(sq.Eq{"normalized": keys}).
		Where(sq.NotEq{"used_at": nil}).
		ToSql()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "history", "build query", err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "history", "query used", err)
	}
	defer rows.Close()

	used := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, services.Wrap(services.ErrTransient, "", "history", "scan used", err)
		}
		used[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "history", "iterate used", err)
	}

	out := candidates[:0:0]
	for _, cand := range candidates {
		if _, ok := used[cand.Key()]; ok {
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

// MarkUsed stamps a topic as produced so future discovery skips it.
func (h *History) MarkUsed(ctx context.Context, topic string) error {
	key := Candidate{Text: topic}.Key()
	now := time.Now().UTC().Format(time.RFC3339)

	query, args, err := sq.Insert("topic_history").
		Columns("normalized", "title", "source", "score", "first_seen", "used_at").
		Values(key, topic, "manual", 1.0, now, now).
		Suffix("ON CONFLICT(normalized) DO UPDATE SET used_at = excluded.used_at").
		ToSql()
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "history", "build mark used", err)
	}
	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return services.Wrap(services.ErrTransient, "", "history", "mark used", err)
	}
	return nil
}
