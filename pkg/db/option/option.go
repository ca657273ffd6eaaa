// Package option provides composable query options for the generic store.
package option

import (
	"fmt"

	"gorm.io/gorm"
)

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
}

func ApplyOperator(c Condition) QueryOption { return c }

type QuerySortBy struct {
	Allow map[string]bool
	Field string
	Desc  bool
}

func (s QuerySortBy) Apply(db *gorm.DB) *gorm.DB {
	field := s.Field
	if field == "" {
		field = "created_at"
	}
	if len(s.Allow) > 0 && !s.Allow[field] {
		field = "created_at"
	}
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", field, direction))
}

func WithSortBy(s QuerySortBy) QueryOption { return s }

type limitOption int

func (l limitOption) Apply(db *gorm.DB) *gorm.DB {
	if l <= 0 {
		return db
	}
	return db.Limit(int(l))
}

func WithLimit(limit int) QueryOption { return limitOption(limit) }
