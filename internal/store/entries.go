package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/antlu/giveaway-assistant/internal/errorx"
	"github.com/antlu/giveaway-assistant/internal/giveaway"
)

func (s *Store) AddEntry(ctx context.Context, userID, eventID string) error {
	_, err := s.ExecContext(ctx,
		"INSERT INTO giveaway_entries (user_id, giveaway_id) VALUES (?, ?)", userID, eventID)
	if err != nil {
		switch constraintCode(err) {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return errorx.New(errorx.DuplicateEntry, "You are already participating in this giveaway")
		case sqlite3.ErrConstraintForeignKey:
			return errorx.New(errorx.NotFound, "The specified giveaway doesn't exist")
		}
		return unavailable(err, "error inserting entry of %s", userID)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, userID, eventID string) (*giveaway.Entry, error) {
	var entry giveaway.Entry
	err := s.QueryRowContext(ctx,
		"SELECT user_id, giveaway_id FROM giveaway_entries WHERE user_id = ? AND giveaway_id = ?",
		userID, eventID,
	).Scan(&entry.UserID, &entry.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable(err, "error querying entry of %s", userID)
	}
	return &entry, nil
}

func (s *Store) ListEntries(ctx context.Context, eventID string) ([]giveaway.Entry, error) {
	rows, err := s.QueryContext(ctx,
		"SELECT user_id, giveaway_id FROM giveaway_entries WHERE giveaway_id = ? ORDER BY rowid", eventID)
	if err != nil {
		return nil, unavailable(err, "error querying entries of giveaway %s", eventID)
	}
	defer rows.Close()

	entries := []giveaway.Entry{}
	for rows.Next() {
		var entry giveaway.Entry
		if err := rows.Scan(&entry.UserID, &entry.EventID); err != nil {
			return nil, unavailable(err, "error scanning entry")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "error iterating entries")
	}

	return entries, nil
}

func (s *Store) RemoveEntry(ctx context.Context, userID, eventID string) error {
	_, err := s.ExecContext(ctx,
		"DELETE FROM giveaway_entries WHERE user_id = ? AND giveaway_id = ?", userID, eventID)
	if err != nil {
		return unavailable(err, "error deleting entry of %s", userID)
	}
	return nil
}
