package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"
	"github.com/rotisserie/eris"

	"github.com/jose-valero/pug-coordinator/internal/domain"
)

type MatchRepo struct{ db *sql.DB }

func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

func (r *MatchRepo) Get(ctx context.Context, matchID string) (domain.Match, error) {
	var (
		m      domain.Match
		status string
		server sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, status, server, map
  FROM matches
 WHERE id = $1
`, matchID).Scan(&m.ID, &status, &server, &m.Map)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Match{}, ErrNotFound
	}
	if err != nil {
		return domain.Match{}, eris.Wrapf(err, "get match %s", matchID)
	}
	m.Status = domain.Status(status)
	m.Server = server.String

	rows, err := r.db.QueryContext(ctx, `
SELECT participant_id, steam_id, alias, faction, role, replaced
  FROM match_players
 WHERE match_id = $1
 ORDER BY position ASC
`, matchID)
	if err != nil {
		return domain.Match{}, eris.Wrapf(err, "get players of match %s", matchID)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p       domain.MatchPlayer
			faction string
		)
		if err := rows.Scan(&p.ParticipantID, &p.SteamID, &p.Alias, &faction, &p.Role, &p.Replaced); err != nil {
			return domain.Match{}, eris.Wrap(err, "scan match player")
		}
		p.Faction = domain.Faction(faction)
		m.Players = append(m.Players, p)
	}
	return m, eris.Wrap(rows.Err(), "iterate match players")
}

// Status: lectura liviana, el controller la usa antes de actuar sobre timers/callbacks.
func (r *MatchRepo) Status(ctx context.Context, matchID string) (domain.Status, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM matches WHERE id = $1`, matchID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "match status %s", matchID)
	}
	return domain.Status(status), nil
}

// Statuses: match_id -> status para varios ids de una. Los ids desconocidos no aparecen.
func (r *MatchRepo) Statuses(ctx context.Context, ids []string) (map[string]domain.Status, error) {
	out := map[string]domain.Status{}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, status
  FROM matches
 WHERE id = ANY($1)
`, pq.Array(ids))
	if err != nil {
		return nil, eris.Wrap(err, "match statuses")
	}
	defer rows.Close()
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, eris.Wrap(err, "scan match status")
		}
		out[id] = domain.Status(status)
	}
	return out, eris.Wrap(rows.Err(), "iterate match statuses")
}

func (r *MatchRepo) UpdateStatus(ctx context.Context, matchID string, status domain.Status) error {
	return r.exec1(ctx, fmt.Sprintf("update status of %s", matchID), `
UPDATE matches SET status = $2, updated_at = now() WHERE id = $1
`, matchID, string(status))
}

// AssignServer guarda el server elegido. Sólo aplica mientras el match está assigning;
// si no, devuelve ErrNotFound.
func (r *MatchRepo) AssignServer(ctx context.Context, matchID, server string) error {
	return r.exec1(ctx, fmt.Sprintf("assign server of %s", matchID), `
UPDATE matches SET server = $2, updated_at = now() WHERE id = $1 AND status = $3
`, matchID, server, string(domain.StatusAssigning))
}

func (r *MatchRepo) exec1(ctx context.Context, what, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrap(err, what)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserta el match con sus jugadores en una sola tx.
func (r *MatchRepo) Create(ctx context.Context, m domain.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin create match")
	}
	defer func() { _ = tx.Rollback() }()

	status := m.Status
	if status == "" {
		status = domain.StatusAssigning
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO matches (id, status, server, map)
VALUES ($1, $2, NULLIF($3, ''), $4)
`, m.ID, string(status), m.Server, m.Map); err != nil {
		return eris.Wrapf(err, "insert match %s", m.ID)
	}

	for i, p := range m.Players {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO match_players (match_id, position, participant_id, steam_id, alias, faction, role, replaced)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, m.ID, i, p.ParticipantID, p.SteamID, p.Alias, string(p.Faction), p.Role, p.Replaced); err != nil {
			return eris.Wrapf(err, "insert player %s of match %s", p.ParticipantID, m.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "commit create match")
}

// PruneTerminal: borra matches completed/aborted sin cambios desde hace más de olderThan.
func (r *MatchRepo) PruneTerminal(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM matches
 WHERE status IN ('completed','aborted')
   AND updated_at < now() - $1::interval
`, durToInterval(olderThan))
	if err != nil {
		return 0, eris.Wrap(err, "prune terminal matches")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func durToInterval(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0 seconds"
	}
	return fmt.Sprintf("%d seconds", secs)
}
