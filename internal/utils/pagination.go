package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/collab-task-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination represents the pagination metadata in API responses
type Pagination struct {
	CurrentPage  int      `json:"current_page"`
	ItemsPerPage int      `json:"items_per_page"`
	TotalItems   int64    `json:"total_items"`
	TotalPages   int      `json:"total_pages"`
	Next         *PageRef `json:"next,omitempty"`
	Prev         *PageRef `json:"prev,omitempty"`
}

// NewPaginationParams clamps page and limit into the accepted range.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	// keeps page*limit within int
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPageSize)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	return NewPaginationParams(page, limit)
}

// NewPagination computes page metadata. Next is omitted on the last page and
// Prev on the first.
func NewPagination(params PaginationParams, total int64) Pagination {
	totalPages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		totalPages++
	}

	p := Pagination{
		CurrentPage:  params.Page,
		ItemsPerPage: params.Limit,
		TotalItems:   total,
		TotalPages:   totalPages,
	}

	if int64(params.Page*params.Limit) < total {
		p.Next = &PageRef{Page: params.Page + 1, Limit: params.Limit}
	}
	if params.Offset > 0 {
		p.Prev = &PageRef{Page: params.Page - 1, Limit: params.Limit}
	}

	return p
}
