package scope

import (
	"time"

	"gorm.io/gorm"
)

// Paginate applies OFFSET/LIMIT. A non-positive limit leaves the query unbounded.
func Paginate(skip, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if skip > 0 {
			db = db.Offset(skip)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	}
}

// DateBetween filters column to [from, to], both inclusive. Nil bounds are ignored.
func DateBetween(column string, from, to *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", from.Format(time.DateOnly))
		}
		if to != nil {
			db = db.Where(column+" <= ?", to.Format(time.DateOnly))
		}
		return db
	}
}
