package service

import (
	"regexp"
	"unicode/utf8"

	"github.com/Ry1and/flockr/internal/models"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

const (
	minPasswordLen = 6
	maxPasswordLen = 128
	maxNameLen     = 50
	minHandleLen   = 3
	maxHandleLen   = 20
	maxChannelName = 20
	maxSearchQuery = 1000
)

func validateEmail(email string) error {
	if !emailRegexp.MatchString(email) {
		return BadRequest("INVALID_EMAIL", "email address is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return BadRequest("INVALID_PASSWORD", "password must be 6-128 characters")
	}
	return nil
}

func validateNames(first, last string) error {
	if n := utf8.RuneCountInString(first); n < 1 || n > maxNameLen {
		return BadRequest("INVALID_NAME_FIRST", "first name must be 1-50 characters")
	}
	if n := utf8.RuneCountInString(last); n < 1 || n > maxNameLen {
		return BadRequest("INVALID_NAME_LAST", "last name must be 1-50 characters")
	}
	return nil
}

func validateHandle(handle string) error {
	if n := utf8.RuneCountInString(handle); n < minHandleLen || n > maxHandleLen {
		return BadRequest("INVALID_HANDLE", "handle must be 3-20 characters")
	}
	return nil
}

func validateContent(content string) error {
	if n := utf8.RuneCountInString(content); n < 1 || n > models.MaxMessageLength {
		return BadRequest("INVALID_CONTENT", "message must be 1-1000 characters")
	}
	return nil
}
