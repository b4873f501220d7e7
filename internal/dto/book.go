package dto

// BookRequest is the create/update payload for a book listing. Slug and
// ownership are derived server-side.
type BookRequest struct {
	Title        string `json:"title" binding:"required"`
	Cover        string `json:"cover"`
	Author       string `json:"author" binding:"required"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Tags         string `json:"tags"`
	BookType     string `json:"bookType" binding:"required"`
	SourceURL    string `json:"sourceUrl" binding:"required"`
	DiscountCode string `json:"discount_code"`
	Status       *int   `json:"book_status"`
}

// CounterResponse returns an updated engagement counter
type CounterResponse struct {
	ViewCount     *int64 `json:"view_count,omitempty"`
	DownloadCount *int64 `json:"download_count,omitempty"`
}
