package option

import (
	"github.com/municipia/apoios/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(stmt *gorm.DB) *gorm.DB {
	return f(stmt)
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return stmt
		}
		return stmt.Limit(limit)
	})
}

func WithOrder(order string) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if order == "" {
			return stmt
		}
		return stmt.Order(order)
	})
}

// ApplyPagination decodes the cursor token and applies keyset pagination.
// One extra row is fetched so the caller can detect a next page.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor != nil {
				stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
					cursor.CreatedAt,
					cursor.CreatedAt,
					cursor.ID,
				)
			}
		}
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		return stmt.Limit(size + 1)
	})
}
