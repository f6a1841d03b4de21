package option

import "gorm.io/gorm"

// QueryOption customizes a gorm query built by the generic store.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type optionFunc func(db *gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

func OrderBy(expr string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	})
}

func Limit(n int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Limit(n)
	})
}
