package room

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// roomRow is the storage shape of a room. Amenities are a JSON array so the
// same schema works on postgres and sqlite.
type roomRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	PropertyType string  `db:"property_type"`
	RoomType     string  `db:"room_type"`
	Price        float64 `db:"price"`
	Amenities    string  `db:"amenities"`
}

func (r *roomRow) toDomain() (domain.Room, error) {
	var amenities []string
	if r.Amenities != "" {
		if err := json.Unmarshal([]byte(r.Amenities), &amenities); err != nil {
			return domain.Room{}, fmt.Errorf("decode amenities of room %s: %w", r.ID, err)
		}
	}
	return domain.Room{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		PropertyType: r.PropertyType,
		RoomType:     r.RoomType,
		Price:        r.Price,
		Amenities:    amenities,
	}, nil
}

func fromDomain(room *domain.Room) (roomRow, error) {
	amenities := room.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	data, err := json.Marshal(amenities)
	if err != nil {
		return roomRow{}, fmt.Errorf("encode amenities of room %s: %w", room.ID, err)
	}
	return roomRow{
		ID:           room.ID,
		Name:         room.Name,
		Description:  room.Description,
		PropertyType: room.PropertyType,
		RoomType:     room.RoomType,
		Price:        room.Price,
		Amenities:    string(data),
	}, nil
}
