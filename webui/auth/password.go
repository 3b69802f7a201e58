// Package auth provides the authentication organisms for the web UI.
// This file contains the password hashing molecule.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt cost factor for password hashing.
	// Cost 12 takes roughly 250ms on current hardware.
	DefaultCost = 12

	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 8
)

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordTooShort is returned when a password fails the length check.
	ErrPasswordTooShort = errors.New("password is too short")

	// ErrPasswordMismatch is returned when verification fails. It does not
	// reveal whether the stored hash was valid.
	ErrPasswordMismatch = errors.New("password does not match")
)

// HashPassword creates a bcrypt hash of the password. The hash embeds a
// random salt and the cost factor, so it is safe to store directly.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a bcrypt hash using
// bcrypt's constant-time comparison. Any failure maps to
// ErrPasswordMismatch so callers cannot distinguish a bad password from a
// malformed hash.
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}

	return nil
}
