package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxIDLength bounds entity identifiers accepted from datasets and requests.
const MaxIDLength = 256

// ValidateEntityID validates an ontology entity identifier such as "Q35120".
//
// The rules are conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No surrounding whitespace
//   - Maximum length of MaxIDLength characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "entity id cannot be empty")
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidInput, "entity id too long (max %d characters)", MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entity id contains invalid control characters")
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, "entity id %q has surrounding whitespace", id)
	}

	return nil
}

// ValidateDepth checks a requested tree depth against the configured cap.
func ValidateDepth(depth, limit int) error {
	if depth < 0 {
		return New(ErrCodeInvalidDepth, "depth must not be negative, got %d", depth)
	}
	if depth > limit {
		return New(ErrCodeInvalidDepth, "depth %d exceeds limit %d", depth, limit)
	}
	return nil
}

// ValidateBounds checks that a drawing surface has a positive finite size.
func ValidateBounds(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return New(ErrCodeInvalidBounds, "bounds must be positive, got %gx%g", width, height)
		}
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
