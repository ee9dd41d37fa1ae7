package domain

// Pagination describes a page of a larger listing.
type Pagination struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Data       []PublicUser `json:"data"`
	Pagination Pagination   `json:"pagination"`
}
