package handler

import "github.com/bookshelf/bookapp/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Message string `json:"message"`
}

// --- Request types ---
// These are owned by the transport layer; the validate tags run through the
// echo validator before any service call.

type loginRequest struct {
	UserName string `json:"userName" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type registerRequest struct {
	UserName string  `json:"userName"           validate:"notblank"`
	Email    string  `json:"email"              validate:"required,email"`
	Password string  `json:"password"           validate:"required,min=6"`
	FullName *string `json:"fullName,omitempty"`
}

type createBookRequest struct {
	Title           string       `json:"title"           validate:"notblank"`
	Author          string       `json:"author"          validate:"notblank"`
	PublicationDate *domain.Date `json:"publicationDate"`
	Quantity        int          `json:"quantity"        validate:"gte=0"`
}

type updateBookRequest struct {
	Title                *string      `json:"title,omitempty"`
	Author               *string      `json:"author,omitempty"`
	PublicationDate      *domain.Date `json:"publicationDate,omitempty"`
	ClearPublicationDate bool         `json:"clearPublicationDate,omitempty"`
	Quantity             *int         `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

type listBooksQuery struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Search   string `query:"search"`
	SortBy   string `query:"sortBy"`
	Desc     bool   `query:"desc"`
}
