package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

// ModerationRouter serves the per-kind moderation surface. The kind is a
// path segment constrained by the route pattern, so parsing it cannot fail
// for requests that got this far.
func (routes *Routes) ModerationRouter(r chi.Router) {
	r.With(routes.EnforceIdentity).Post("/report/{contentID}", routes.AppHandler(routes.PostReport))
	r.Group(func(r chi.Router) {
		r.Use(routes.EnforceModerator)
		r.Get("/reported", routes.AppHandler(routes.GetReported))
		r.Post("/resolve/{contentID}", routes.AppHandler(routes.PostResolve))
		r.Delete("/{contentID}", routes.AppHandler(routes.DeleteContent))
	})
}

func contentKindParam(r *http.Request) models.ContentKind {
	kind, _ := models.ParseContentKind(chi.URLParam(r, "kind"))
	return kind
}

func contentIDParam(r *http.Request) (int, AppError) {
	id, err := strconv.Atoi(chi.URLParam(r, "contentID"))
	if err != nil {
		return 0, &ErrBadRequest{Cause: err, Motivation: "bad content id"}
	}
	return id, nil
}

func (routes *Routes) PostReport(w http.ResponseWriter, r *http.Request) AppError {
	id, appErr := contentIDParam(r)
	if appErr != nil {
		return appErr
	}
	kind := contentKindParam(r)

	if err := routes.db.Report(r.Context(), kind, id); err != nil {
		return MapError(err, string(kind))
	}
	routes.respondJSON(w, r, http.StatusOK, map[string]string{"status": "reported"})
	return nil
}

func (routes *Routes) GetReported(w http.ResponseWriter, r *http.Request) AppError {
	kind := contentKindParam(r)

	items, err := routes.db.ListReported(r.Context(), kind)
	if err != nil {
		return MapError(err, string(kind))
	}
	routes.respondJSON(w, r, http.StatusOK, items)
	return nil
}

func (routes *Routes) PostResolve(w http.ResponseWriter, r *http.Request) AppError {
	id, appErr := contentIDParam(r)
	if appErr != nil {
		return appErr
	}
	kind := contentKindParam(r)

	if err := routes.db.Resolve(r.Context(), kind, id); err != nil {
		return MapError(err, string(kind))
	}
	routes.respondJSON(w, r, http.StatusOK, map[string]string{"status": "resolved"})
	return nil
}

func (routes *Routes) DeleteContent(w http.ResponseWriter, r *http.Request) AppError {
	id, appErr := contentIDParam(r)
	if appErr != nil {
		return appErr
	}
	kind := contentKindParam(r)

	if err := routes.db.DeleteContent(r.Context(), kind, id); err != nil {
		return MapError(err, string(kind))
	}
	routes.respondJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
	return nil
}
