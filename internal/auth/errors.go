package auth

import "errors"

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnauthorized         = errors.New("unauthorized")

	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidInput  = errors.New("invalid input")
)
