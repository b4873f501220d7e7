package dto

// CategoryRequest is the create/update payload for a category
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}
