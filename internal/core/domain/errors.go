package domain

import "errors"

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrInvalidBook        = errors.New("title and author are required")
	ErrInvalidQuantity    = errors.New("quantity must not be negative")
	ErrBorrowingNotFound  = errors.New("borrowing not found")
	ErrOutOfStock         = errors.New("no copies available")
	ErrAlreadyReturned    = errors.New("book already returned")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)
