package user

import (
	"fmt"
	"strings"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 28
	minPasswordLen = 8
)

func validateSignupRequest(req *SignupRequest) error {
	if req.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(req.Username) < minUsernameLen {
		return fmt.Errorf("username must be at least %d characters long, got %d", minUsernameLen, len(req.Username))
	}
	if len(req.Username) > maxUsernameLen {
		return fmt.Errorf("username must be no more than %d characters long, got %d", maxUsernameLen, len(req.Username))
	}

	if req.Email == "" {
		return fmt.Errorf("email is required")
	}
	if err := validateEmail(req.Email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	if len(req.Password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters, got %d", minPasswordLen, len(req.Password))
	}

	return nil
}

func validateEmail(email string) error {
	// Basic validation - has @ with text before it and a dotted domain after
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 {
		return fmt.Errorf("must contain @ with text before it")
	}

	afterAt := email[atIndex+1:]
	if afterAt == "" || !strings.Contains(afterAt, ".") {
		return fmt.Errorf("must have a domain with a dot after @")
	}

	dotIndex := strings.LastIndex(afterAt, ".")
	if dotIndex == 0 || dotIndex == len(afterAt)-1 {
		return fmt.Errorf("invalid domain format")
	}

	return nil
}
