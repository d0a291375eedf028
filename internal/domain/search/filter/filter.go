package filter

import (
	"fmt"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// MaxAmenities is the maximum number of required amenities per filter.
const MaxAmenities = 32

// Filter holds the structured post-ranking predicates. Zero-valued fields are not applied.
type Filter struct {
	propertyType string
	roomType     string
	minPrice     *float64
	maxPrice     *float64
	amenities    []string
}

// New validates and creates a Filter.
func New(propertyType, roomType string, minPrice, maxPrice *float64, amenities []string) (Filter, error) {
	if minPrice != nil && *minPrice < 0 {
		return Filter{}, fmt.Errorf("min_price must be non-negative: %w", domain.ErrInvalidArgument)
	}
	if maxPrice != nil && *maxPrice < 0 {
		return Filter{}, fmt.Errorf("max_price must be non-negative: %w", domain.ErrInvalidArgument)
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return Filter{}, fmt.Errorf("min_price %v exceeds max_price %v: %w",
			*minPrice, *maxPrice, domain.ErrInvalidArgument)
	}
	if len(amenities) > MaxAmenities {
		return Filter{}, fmt.Errorf("too many amenities (max %d): %w", MaxAmenities, domain.ErrInvalidArgument)
	}
	for _, a := range amenities {
		if a == "" {
			return Filter{}, fmt.Errorf("amenity must not be empty: %w", domain.ErrInvalidArgument)
		}
	}
	return Filter{
		propertyType: propertyType,
		roomType:     roomType,
		minPrice:     minPrice,
		maxPrice:     maxPrice,
		amenities:    amenities,
	}, nil
}

// PropertyType returns the required category, empty if unset.
func (f Filter) PropertyType() string { return f.propertyType }

// RoomType returns the required sub-type, empty if unset.
func (f Filter) RoomType() string { return f.roomType }

// MinPrice returns the inclusive lower price bound.
func (f Filter) MinPrice() *float64 { return f.minPrice }

// MaxPrice returns the inclusive upper price bound.
func (f Filter) MaxPrice() *float64 { return f.maxPrice }

// Amenities returns the amenities a room must all offer.
func (f Filter) Amenities() []string { return f.amenities }

// IsEmpty reports whether the filter has no predicates.
func (f Filter) IsEmpty() bool {
	return f.propertyType == "" && f.roomType == "" &&
		f.minPrice == nil && f.maxPrice == nil && len(f.amenities) == 0
}

// Matches evaluates every predicate against the room as a logical AND.
func (f Filter) Matches(r *domain.Room) bool {
	if f.propertyType != "" && r.PropertyType != f.propertyType {
		return false
	}
	if f.roomType != "" && r.RoomType != f.roomType {
		return false
	}
	if f.minPrice != nil && r.Price < *f.minPrice {
		return false
	}
	if f.maxPrice != nil && r.Price > *f.maxPrice {
		return false
	}
	return r.HasAmenities(f.amenities)
}
