package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/antlu/giveaway-assistant/internal/errorx"
	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

const giveawayColumns = "id, channel_id, host_id, prize, winners, deadline, resolved, role"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGiveaway(row rowScanner) (giveaway.Event, error) {
	var (
		event giveaway.Event
		role  sql.NullString
	)
	err := row.Scan(
		&event.ID, &event.ChannelID, &event.HostID, &event.Prize,
		&event.WinnerCount, &event.Deadline, &event.Resolved, &role,
	)
	event.RequiredRole = role.String
	return event, err
}

func (s *Store) Create(ctx context.Context, event *giveaway.Event) error {
	role := sql.NullString{String: event.RequiredRole, Valid: event.RequiredRole != ""}

	_, err := s.ExecContext(ctx,
		`INSERT INTO giveaways (`+giveawayColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.ChannelID, event.HostID, event.Prize,
		event.WinnerCount, event.Deadline, event.Resolved, role,
	)
	if err != nil {
		switch constraintCode(err) {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return errorx.New(errorx.InvalidArgument, "Giveaway %s already exists", event.ID)
		case sqlite3.ErrConstraintCheck:
			return errorx.New(errorx.InvalidArgument, "The number of winners must be a positive number")
		}
		return unavailable(err, "error inserting giveaway %s", event.ID)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*giveaway.Event, error) {
	row := s.QueryRowContext(ctx, `SELECT `+giveawayColumns+` FROM giveaways WHERE id = ?`, id)

	event, err := scanGiveaway(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable(err, "error querying giveaway %s", id)
	}

	return &event, nil
}

func (s *Store) ListAll(ctx context.Context) ([]giveaway.Event, error) {
	return s.listGiveaways(ctx, `SELECT `+giveawayColumns+` FROM giveaways ORDER BY deadline`)
}

func (s *Store) ListByHost(ctx context.Context, hostID string) ([]giveaway.Event, error) {
	return s.listGiveaways(ctx,
		`SELECT `+giveawayColumns+` FROM giveaways WHERE host_id = ? ORDER BY deadline`, hostID)
}

func (s *Store) ListDue(ctx context.Context, now int64) ([]giveaway.Event, error) {
	return s.listGiveaways(ctx,
		`SELECT `+giveawayColumns+` FROM giveaways WHERE resolved = 0 AND deadline <= ? ORDER BY deadline`, now)
}

func (s *Store) ListExpired(ctx context.Context, now, retention int64) ([]giveaway.Event, error) {
	return s.listGiveaways(ctx,
		`SELECT `+giveawayColumns+` FROM giveaways WHERE resolved = 1 AND ? - deadline >= ? ORDER BY deadline`,
		now, retention)
}

func (s *Store) listGiveaways(ctx context.Context, query string, args ...any) ([]giveaway.Event, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err, "error querying giveaways")
	}
	defer rows.Close()

	events := []giveaway.Event{}
	for rows.Next() {
		event, err := scanGiveaway(rows)
		if err != nil {
			return nil, unavailable(err, "error scanning giveaway")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "error iterating giveaways")
	}

	return events, nil
}

func (s *Store) MarkResolved(ctx context.Context, id string) (bool, error) {
	res, err := s.ExecContext(ctx, "UPDATE giveaways SET resolved = 1 WHERE id = ? AND resolved = 0", id)
	if err != nil {
		return false, unavailable(err, "error resolving giveaway %s", id)
	}
	return rowsAffected(res)
}

func (s *Store) RewriteDeadline(ctx context.Context, id string, ts int64) error {
	_, err := s.ExecContext(ctx, "UPDATE giveaways SET deadline = ? WHERE id = ?", ts, id)
	if err != nil {
		return unavailable(err, "error updating deadline of giveaway %s", id)
	}
	return nil
}

func (s *Store) ResolveNow(ctx context.Context, id string, now int64) (bool, error) {
	res, err := s.ExecContext(ctx,
		"UPDATE giveaways SET resolved = 1, deadline = ? WHERE id = ? AND resolved = 0", now, id)
	if err != nil {
		return false, unavailable(err, "error ending giveaway %s", id)
	}
	return rowsAffected(res)
}

// Delete removes the giveaway together with all of its entries.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM giveaway_entries WHERE giveaway_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM giveaways WHERE id = ?", id)
		return err
	})
	if err != nil {
		return unavailable(err, "error deleting giveaway %s", id)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, now, retention int64) (int64, error) {
	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM giveaway_entries WHERE giveaway_id IN (
				SELECT id FROM giveaways WHERE resolved = 1 AND ? - deadline >= ?
			)`, now, retention)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			"DELETE FROM giveaways WHERE resolved = 1 AND ? - deadline >= ?", now, retention)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, unavailable(err, "error deleting old giveaways")
	}
	return deleted, nil
}

func rowsAffected(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable(err, "error reading affected rows")
	}
	return affected == 1, nil
}

var _ giveaway.Store = (*Store)(nil)
