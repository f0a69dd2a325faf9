package request

// CreateGuestSessionRequest is the request body for issuing a guest session
type CreateGuestSessionRequest struct {
	DisplayName string `json:"display_name"`
}
