package dto

// SubscribeRequest is the email-gate form submission for a specific book
type SubscribeRequest struct {
	BookID   string `json:"bookId" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// SubscribeResponse reports whether the email was newly captured for the
// book. Re-submissions succeed with isNew=false.
type SubscribeResponse struct {
	IsNew bool `json:"isNew"`
}
