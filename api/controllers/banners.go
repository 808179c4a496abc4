package controllers

import (
	"net/http"

	"github.com/bazaarly/storefront-backend/api/responses"
	"github.com/bazaarly/storefront-backend/api/validators"
	bannersvc "github.com/bazaarly/storefront-backend/internal/banners"
	pkgerrors "github.com/bazaarly/storefront-backend/pkg/errors"
	"github.com/bazaarly/storefront-backend/pkg/logger"
)

// ListActiveBanners serves the storefront's active sale banners.
func ListActiveBanners(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banners service unavailable"))
			return
		}

		banners, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, banners)
	}
}

// AdminListBanners returns every banner, active or not.
func AdminListBanners(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banners service unavailable"))
			return
		}

		banners, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, banners)
	}
}

type createBannerRequest struct {
	Title    string  `json:"title" validate:"required,min=2,max=200"`
	ImageURL string  `json:"image_url" validate:"required"`
	Link     *string `json:"link"`
	Active   *bool   `json:"active"`
}

// CreateBanner adds a sale banner.
func CreateBanner(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banners service unavailable"))
			return
		}

		var payload createBannerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		banner, err := svc.Create(r.Context(), bannersvc.CreateInput{
			Title:    payload.Title,
			ImageURL: payload.ImageURL,
			Link:     payload.Link,
			Active:   payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, banner)
	}
}

type updateBannerRequest struct {
	Title    *string `json:"title"`
	ImageURL *string `json:"image_url"`
	Link     *string `json:"link"`
	Active   *bool   `json:"active"`
}

// UpdateBanner applies partial edits to a banner.
func UpdateBanner(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banners service unavailable"))
			return
		}

		id, err := pathUUID(r, "bannerID", "banner id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBannerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Update(r.Context(), id, bannersvc.UpdateInput{
			Title:    payload.Title,
			ImageURL: payload.ImageURL,
			Link:     payload.Link,
			Active:   payload.Active,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// DeleteBanner removes a banner.
func DeleteBanner(svc bannersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "banners service unavailable"))
			return
		}

		id, err := pathUUID(r, "bannerID", "banner id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
