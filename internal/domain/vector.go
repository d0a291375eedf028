package domain

import "fmt"

// VectorRecord is the stored embedding of one room.
type VectorRecord struct {
	EntityID  string
	Embedding []float32
	Dimension int
}

// NewVectorRecord validates and creates a VectorRecord.
func NewVectorRecord(entityID string, embedding []float32) (VectorRecord, error) {
	if entityID == "" {
		return VectorRecord{}, fmt.Errorf("entity id is required: %w", ErrInvalidArgument)
	}
	if len(embedding) == 0 {
		return VectorRecord{}, fmt.Errorf("empty embedding for %q: %w", entityID, ErrVectorDimMismatch)
	}
	return VectorRecord{EntityID: entityID, Embedding: embedding, Dimension: len(embedding)}, nil
}

// Validate checks the record against the store-wide dimension.
func (v *VectorRecord) Validate(dim int) error {
	if v.Dimension != len(v.Embedding) {
		return fmt.Errorf("record %q declares dim %d but carries %d values: %w",
			v.EntityID, v.Dimension, len(v.Embedding), ErrVectorDimMismatch)
	}
	if v.Dimension != dim {
		return fmt.Errorf("record %q has dim %d, store expects %d: %w",
			v.EntityID, v.Dimension, dim, ErrVectorDimMismatch)
	}
	return nil
}

// ScoredCandidate is a ranked room id, produced per search call.
type ScoredCandidate struct {
	EntityID string
	Score    float64
}
