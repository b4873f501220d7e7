package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// BookType represents how a book is acquired (matches DB ENUM)
type BookType string

const (
	BookTypeFree     BookType = "free"
	BookTypeDiscount BookType = "discount"
)

// Valid reports whether the book type is known.
func (t BookType) Valid() bool {
	return t == BookTypeFree || t == BookTypeDiscount
}

// Book listing status (matches DB SMALLINT)
const (
	BookStatusDraft     = 0
	BookStatusPublished = 1
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnpublished = errors.New("book is not available")
)

// Book represents a promoted book listing owned by a contributor.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Cover         string    `json:"cover"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Tags          string    `json:"tags"`
	BookType      BookType  `json:"book_type"`
	SourceURL     string    `json:"source_url"`
	DiscountCode  string    `json:"discount_code,omitempty"`
	Status        int       `json:"book_status"`
	UserID        string    `json:"user_id"`
	ViewCount     int64     `json:"view_count"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Published reports whether the book is visible on public pages.
func (b *Book) Published() bool { return b.Status == BookStatusPublished }

var (
	slugStrip    = regexp.MustCompile(`[^\w\s]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify derives the URL slug from a book title: lowercase, punctuation
// stripped, whitespace runs replaced with a single hyphen.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugCollapse.ReplaceAllString(s, "-")
}
