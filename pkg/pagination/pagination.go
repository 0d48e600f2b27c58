package pagination

import (
	"fmt"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are sanitized pagination inputs.
type Params struct {
	Page  int
	Limit int
}

// Skip returns the document offset for the current page.
func (p Params) Skip() int {
	return (p.Page - 1) * p.Limit
}

// ValidateParams sanitizes raw query values: page defaults to 1 and is
// clamped to >=1, limit defaults to 10 and is clamped to [1,100].
func ValidateParams(rawPage, rawLimit string) Params {
	page := DefaultPage
	if v, err := strconv.Atoi(rawPage); err == nil && v > 0 {
		page = v
	}

	limit := DefaultLimit
	if v, err := strconv.Atoi(rawLimit); err == nil && v > 0 {
		limit = v
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Metadata describes the paging position of a list response, including
// precomputed navigation links.
type Metadata struct {
	CurrentPage     int     `json:"currentPage"`
	ItemsPerPage    int     `json:"itemsPerPage"`
	TotalItems      int64   `json:"totalItems"`
	TotalPages      int64   `json:"totalPages"`
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	NextPage        *string `json:"nextPage"`
	PreviousPage    *string `json:"previousPage"`
}

// NewMetadata builds response metadata for the given page over totalItems
// records, with next/previous links rooted at baseURL.
func NewMetadata(params Params, totalItems int64, baseURL string) Metadata {
	totalPages := totalItems / int64(params.Limit)
	if totalItems%int64(params.Limit) != 0 {
		totalPages++
	}

	meta := Metadata{
		CurrentPage:     params.Page,
		ItemsPerPage:    params.Limit,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasNextPage:     int64(params.Page) < totalPages,
		HasPreviousPage: params.Page > 1,
	}

	if meta.HasNextPage {
		link := fmt.Sprintf("%s?page=%d&limit=%d", baseURL, params.Page+1, params.Limit)
		meta.NextPage = &link
	}
	if meta.HasPreviousPage {
		link := fmt.Sprintf("%s?page=%d&limit=%d", baseURL, params.Page-1, params.Limit)
		meta.PreviousPage = &link
	}

	return meta
}
