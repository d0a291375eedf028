package domain

// Room is a bookable unit of the catalog. The document store owns it; search only reads it.
type Room struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PropertyType string   `json:"property_type"`
	RoomType     string   `json:"room_type"`
	Price        float64  `json:"price"`
	Amenities    []string `json:"amenities"`
}

// EmbeddingText is the text fed to the embedding provider when the room is indexed.
func (r *Room) EmbeddingText() string {
	return r.Name + " " + r.Description
}

// HasAmenities reports whether the room offers every amenity in required.
func (r *Room) HasAmenities(required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(r.Amenities))
	for _, a := range r.Amenities {
		have[a] = struct{}{}
	}
	for _, a := range required {
		if _, ok := have[a]; !ok {
			return false
		}
	}
	return true
}
