// Package model defines the core domain types for Conversa.
package model

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 32
	MaxRoomNameLength = 64
	MaxMessageLength  = 2000
)

// Domain errors reported to clients as a single ERRO line.
var (
	ErrNameTaken     = errors.New("username already in use")
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrNotInRoom     = errors.New("not in a room")
	ErrUserNotInRoom = errors.New("user not in room")
	ErrNotAdmin      = errors.New("admin privileges required")
	ErrBanned        = errors.New("banned from this server")
)

var (
	ErrUsernameEmpty   = errors.New("username must not be empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameInvalid = errors.New("username must contain only letters, digits, underscore or hyphen")
	ErrRoomNameEmpty   = errors.New("room name must not be empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrRoomNameInvalid = errors.New("room name must not contain protocol delimiters or control characters")
)

// ValidateUsername checks that a username is 1-32 letter/digit/underscore/hyphen runes.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrUsernameEmpty
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return ErrUsernameInvalid
		}
	}
	return nil
}

// ValidateRoomName checks that a room name is 1-64 runes and free of the
// characters the wire protocol uses as delimiters (':', '|', ',').
func ValidateRoomName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrRoomNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	for _, r := range name {
		if r == ':' || r == '|' || r == ',' || unicode.IsControl(r) {
			return ErrRoomNameInvalid
		}
	}
	return nil
}
