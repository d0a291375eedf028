// Package room reads the room catalog from the relational document store.
package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

const roomColumns = "id, name, description, property_type, room_type, price, amenities"

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	property_type TEXT NOT NULL DEFAULT '',
	room_type     TEXT NOT NULL DEFAULT '',
	price         DOUBLE PRECISION NOT NULL DEFAULT 0,
	amenities     TEXT NOT NULL DEFAULT '[]'
)`

// Repo implements the document store contract over sqlx (postgres or sqlite).
type Repo struct {
	db *sqlx.DB
}

// New creates a room repository.
func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureSchema creates the rooms table when it does not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create rooms table: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// FindByID returns a room by ID.
func (r *Repo) FindByID(ctx context.Context, id string) (domain.Room, error) {
	var row roomRow
	query := r.db.Rebind("SELECT " + roomColumns + " FROM rooms WHERE id = ?")
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, fmt.Errorf("room %s: %w", id, domain.ErrNotFound)
		}
		return domain.Room{}, fmt.Errorf("select room %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}
	return row.toDomain()
}

// FindAll returns every room ordered by ID.
func (r *Repo) FindAll(ctx context.Context) ([]domain.Room, error) {
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+roomColumns+" FROM rooms ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select rooms: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return toDomainSlice(rows)
}

// Count returns the number of rooms.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM rooms"); err != nil {
		return 0, fmt.Errorf("count rooms: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

// ListPage returns up to limit rooms starting at offset, ordered by ID for stable pagination.
func (r *Repo) ListPage(ctx context.Context, offset, limit int) ([]domain.Room, error) {
	var rows []roomRow
	query := r.db.Rebind("SELECT " + roomColumns + " FROM rooms ORDER BY id LIMIT ? OFFSET ?")
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list rooms offset=%d limit=%d: %w: %w",
			offset, limit, domain.ErrStoreUnavailable, err)
	}
	return toDomainSlice(rows)
}

// Upsert creates or replaces a room.
func (r *Repo) Upsert(ctx context.Context, room *domain.Room) error {
	row, err := fromDomain(room)
	if err != nil {
		return err
	}
	query := r.db.Rebind(`
		INSERT INTO rooms (` + roomColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			property_type = excluded.property_type,
			room_type = excluded.room_type,
			price = excluded.price,
			amenities = excluded.amenities`)
	_, err = r.db.ExecContext(ctx, query,
		row.ID, row.Name, row.Description, row.PropertyType, row.RoomType, row.Price, row.Amenities,
	)
	if err != nil {
		return fmt.Errorf("upsert room %s: %w: %w", room.ID, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func toDomainSlice(rows []roomRow) ([]domain.Room, error) {
	rooms := make([]domain.Room, 0, len(rows))
	for i := range rows {
		room, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
