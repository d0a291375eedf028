package domain

import "fmt"

// DefaultKeyPrefix namespaces every key the service writes to the KV store.
const DefaultKeyPrefix = "staysearch:"

// Page is one page of the room listing, as served to clients.
type Page struct {
	Items      []Room `json:"items"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
}

// NewPage builds a page and derives the page count from total and limit.
func NewPage(items []Room, page, limit, total int) Page {
	if items == nil {
		items = []Room{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page{Items: items, Page: page, Limit: limit, TotalPages: totalPages, Total: total}
}

// PageKey identifies one listing page. It fully determines the query behind a cached payload.
type PageKey struct {
	Page  int
	Limit int
}

func (k PageKey) String() string {
	return fmt.Sprintf("rooms:page:%d:limit:%d", k.Page, k.Limit)
}
