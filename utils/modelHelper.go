package utils

import (
	"context"

	"github.com/grcsuite/auditoria_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db with optional preloads
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch model by arbitrary condition
// (may return RecordNotFound)
func FetchModelWhere[T any](ctx context.Context, condition string, values ...interface{}) (*T, error) {
	db := config.GetDB()
	var result T
	err := db.WithContext(ctx).Where(condition, values...).First(&result).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// PageFilter is the limit/offset pair bound from list query strings.
type PageFilter struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// PageScope caps list queries. A missing or oversized limit falls back to the
// default search limit.
func PageScope(filter PageFilter) func(db *gorm.DB) *gorm.DB {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = config.SearchLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit).Offset(offset)
	}
}

// ActiveScope narrows a query to active rows unless the request asked for
// inactive rows too. The active-only default is explicit at each call site
// rather than a global default scope.
func ActiveScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	include := GetIncludeInactiveFromContext(ctx)
	return func(db *gorm.DB) *gorm.DB {
		if include {
			return db
		}
		return db.Where("is_active = ?", true)
	}
}
