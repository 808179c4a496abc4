package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bazaarly/storefront-backend/api/middleware"
	"github.com/bazaarly/storefront-backend/api/validators"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/pagination"
)

// requesterID extracts the authenticated user id seeded by the auth middleware.
func requesterID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

func pathUUID(r *http.Request, param, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
