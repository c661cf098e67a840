package errors

import "fmt"

var (
	ErrNotAuthorized      = fmt.Errorf("not a member of this project")
	ErrNotFound           = fmt.Errorf("not found")
	ErrEmptyContent       = fmt.Errorf("message content is empty")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")
	ErrAuthentication     = fmt.Errorf("authentication failed")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
