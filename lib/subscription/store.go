// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	target_id     TEXT NOT NULL,
	subscriber_id TEXT NOT NULL,
	PRIMARY KEY (target_id, subscriber_id)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS subscriptions_by_subscriber
	ON subscriptions (subscriber_id);

CREATE TABLE IF NOT EXISTS dm_rooms (
	user_id TEXT PRIMARY KEY,
	room_id TEXT NOT NULL
) WITHOUT ROWID;
`

// Store manages SQLite storage for subscriptions and the direct-room
// cache. Safe for concurrent use; each method borrows a pooled
// connection for its duration.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// StoreConfig holds the parameters for opening a subscription store.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 4 if zero or negative.
	PoolSize int

	// Logger receives operational messages.
	Logger *slog.Logger
}

// OpenStore opens (creating if necessary) the subscription database.
// The caller must call Close when done.
func OpenStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("subscription: opening store: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Push adds subscriber to target's subscriber set. Returns true if
// the pair was newly added, false if it already existed.
func (s *Store) Push(ctx context.Context, target, subscriber ref.UserID) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT OR IGNORE INTO subscriptions (target_id, subscriber_id) VALUES (?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{target.String(), subscriber.String()},
		})
	if err != nil {
		return false, fmt.Errorf("subscription: push %s -> %s: %w", subscriber, target, err)
	}
	return conn.Changes() > 0, nil
}

// Remove deletes subscriber from target's subscriber set. Returns
// true if the pair existed, false if there was nothing to remove.
func (s *Store) Remove(ctx context.Context, target, subscriber ref.UserID) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM subscriptions WHERE target_id = ? AND subscriber_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{target.String(), subscriber.String()},
		})
	if err != nil {
		return false, fmt.Errorf("subscription: remove %s -> %s: %w", subscriber, target, err)
	}
	return conn.Changes() > 0, nil
}

// Subscribers returns the user IDs subscribed to target, in insertion
//-independent sorted order. Empty (not an error) when the target has
// no subscribers.
func (s *Store) Subscribers(ctx context.Context, target ref.UserID) ([]ref.UserID, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var subscribers []ref.UserID
	err = sqlitex.Execute(conn,
		"SELECT subscriber_id FROM subscriptions WHERE target_id = ? ORDER BY subscriber_id",
		&sqlitex.ExecOptions{
			Args: []any{target.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := ref.ParseUserID(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("corrupt subscriber_id %q: %w", stmt.ColumnText(0), err)
				}
				subscribers = append(subscribers, id)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("subscription: subscribers of %s: %w", target, err)
	}
	return subscribers, nil
}

// Pair is one subscription edge: Subscriber watches Target.
type Pair struct {
	Target     ref.UserID `json:"target"`
	Subscriber ref.UserID `json:"subscriber"`
}

// All returns every subscription pair, ordered by target then
// subscriber. Used by the admin socket.
func (s *Store) All(ctx context.Context) ([]Pair, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var pairs []Pair
	err = sqlitex.Execute(conn,
		"SELECT target_id, subscriber_id FROM subscriptions ORDER BY target_id, subscriber_id",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				target, err := ref.ParseUserID(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("corrupt target_id %q: %w", stmt.ColumnText(0), err)
				}
				subscriber, err := ref.ParseUserID(stmt.ColumnText(1))
				if err != nil {
					return fmt.Errorf("corrupt subscriber_id %q: %w", stmt.ColumnText(1), err)
				}
				pairs = append(pairs, Pair{Target: target, Subscriber: subscriber})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("subscription: listing all pairs: %w", err)
	}
	return pairs, nil
}

// DMRoom returns the cached direct room for notifying user. The
// second return is false when no room has been recorded yet.
func (s *Store) DMRoom(ctx context.Context, user ref.UserID) (ref.RoomID, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return ref.RoomID{}, false, err
	}
	defer s.pool.Put(conn)

	var roomID ref.RoomID
	found := false
	err = sqlitex.Execute(conn,
		"SELECT room_id FROM dm_rooms WHERE user_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{user.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				parsed, err := ref.ParseRoomID(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("corrupt room_id %q: %w", stmt.ColumnText(0), err)
				}
				roomID = parsed
				found = true
				return nil
			},
		})
	if err != nil {
		return ref.RoomID{}, false, fmt.Errorf("subscription: dm room for %s: %w", user, err)
	}
	return roomID, found, nil
}

// SetDMRoom records the direct room used to notify user, replacing
// any previous entry.
func (s *Store) SetDMRoom(ctx context.Context, user ref.UserID, roomID ref.RoomID) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO dm_rooms (user_id, room_id) VALUES (?, ?) ON CONFLICT (user_id) DO UPDATE SET room_id = excluded.room_id",
		&sqlitex.ExecOptions{
			Args: []any{user.String(), roomID.String()},
		})
	if err != nil {
		return fmt.Errorf("subscription: set dm room for %s: %w", user, err)
	}
	return nil
}
