package dto

// TrackingCodeRequest is the create/update payload for a tracking snippet
type TrackingCodeRequest struct {
	Platform string `json:"platform" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Position string `json:"position" binding:"required"`
	Active   bool   `json:"active"`
}
