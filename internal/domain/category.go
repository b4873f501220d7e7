package domain

import (
	"errors"
	"time"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryNameTaken = errors.New("category name already in use")
	ErrCategoryNested    = errors.New("categories may only be nested one level deep")
	ErrCategoryInUse     = errors.New("category has child categories")
)

// Category is a book category. Names are unique; the hierarchy is at most
// one level deep: a category with a parent may not itself be a parent.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
