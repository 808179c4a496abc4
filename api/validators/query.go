package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter, applying the fallback when
// absent and rejecting values outside [min, max].
func ParseQueryInt(r *http.Request, key string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be an integer", key))
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be between %d and %d", key, min, max))
	}
	return value, nil
}

// ParseQueryBool reads a boolean query parameter with a fallback.
func ParseQueryBool(r *http.Request, key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s value", key))
	}
	return value, nil
}
