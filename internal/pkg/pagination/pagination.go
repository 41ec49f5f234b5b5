package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 200
)

// Query holds parsed pagination parameters.
type Query struct {
	Page  int
	Limit int
}

// Pagination is the metadata block attached to every paginated response.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// FromContext extracts and validates page/limit from the request,
// falling back to defaultLimit when the query omits limit.
func FromContext(c *gin.Context, defaultLimit int) Query {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	page := parseIntOr(c.Query("page"), DefaultPage)
	limit := parseIntOr(c.Query("limit"), defaultLimit)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{Page: page, Limit: limit}
}

// Build computes the metadata block for a page window over total rows.
func Build(q Query, total int64) Pagination {
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Pagination{
		Page:        q.Page,
		Limit:       q.Limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: q.Page < totalPages,
		HasPrevPage: q.Page > 1,
	}
}

// Paginate applies limit/offset to a GORM query and returns the metadata.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := db.Offset(offset).Limit(q.Limit).Find(dest).Error; err != nil {
		return Pagination{}, err
	}
	return Build(q, total), nil
}

func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
