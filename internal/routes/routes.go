package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/akshaychavan7/ByteExchange/internal/db"
	"github.com/akshaychavan7/ByteExchange/internal/metrics"
	"github.com/akshaychavan7/ByteExchange/internal/models"
)

const SessionCookie = "access_token"

type ctxKey int

const identityCtxKey ctxKey = iota

type Routes struct {
	db      *db.SharedDB
	logger  zerolog.Logger
	metrics *metrics.Metrics
	secure  bool
}

func NewRouter(config *models.EnvConfig, database *db.SharedDB, logger zerolog.Logger, m *metrics.Metrics, reg *prometheus.Registry) chi.Router {
	routes := &Routes{
		db:      database,
		logger:  logger,
		metrics: m,
		secure:  !config.Debug,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(routes.measure)
	r.Use(routes.IdentityCtx)

	r.Get("/healthz", routes.AppHandler(routes.GetHealth))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/login", routes.LoginRouter)
	r.Route("/users", routes.UsersRouter)
	r.Route("/questions", routes.QuestionsRouter)
	r.With(routes.EnforceIdentity).Post("/answers", routes.AppHandler(routes.PostAnswer))
	r.With(routes.EnforceIdentity).Post("/comments", routes.AppHandler(routes.PostComment))
	r.With(routes.EnforceIdentity).Post("/vote/{direction}", routes.AppHandler(routes.PostVote))
	r.Route("/{kind:question|answer|comment}", routes.ModerationRouter)

	r.Get("/tags", routes.AppHandler(routes.GetTags))

	return r
}

// AppError is what handlers return instead of writing error responses
// themselves; AppHandler turns it into a status code, a JSON body and a
// log line.
type AppError interface {
	error
	Status() int
	Message() string
}

type ErrInternal struct {
	Cause  error
	PubMsg string
}

func (e *ErrInternal) Error() string { return "internal error: " + e.Cause.Error() }
func (e *ErrInternal) Status() int   { return http.StatusInternalServerError }
func (e *ErrInternal) Message() string {
	if e.PubMsg != "" {
		return e.PubMsg
	}
	return "Internal Server Error"
}
func (e *ErrInternal) Unwrap() error { return e.Cause }

type ErrNotFound struct {
	Cause error
	Thing string
}

func (e *ErrNotFound) Error() string { return e.Thing + " not found" }
func (e *ErrNotFound) Status() int   { return http.StatusNotFound }
func (e *ErrNotFound) Message() string {
	if e.Thing != "" {
		return e.Thing + " not found"
	}
	return "Not Found"
}
func (e *ErrNotFound) Unwrap() error { return e.Cause }

type ErrBadRequest struct {
	Cause      error
	Motivation string
}

func (e *ErrBadRequest) Error() string { return "bad request: " + e.Motivation }
func (e *ErrBadRequest) Status() int   { return http.StatusBadRequest }
func (e *ErrBadRequest) Message() string {
	if e.Motivation != "" {
		return e.Motivation
	}
	return "Bad Request"
}
func (e *ErrBadRequest) Unwrap() error { return e.Cause }

type ErrMustLogin struct{}

func (e *ErrMustLogin) Error() string   { return "authentication required" }
func (e *ErrMustLogin) Status() int     { return http.StatusUnauthorized }
func (e *ErrMustLogin) Message() string { return "Authentication required" }

type ErrForbidden struct{}

func (e *ErrForbidden) Error() string   { return "insufficient role" }
func (e *ErrForbidden) Status() int     { return http.StatusForbidden }
func (e *ErrForbidden) Message() string { return "Forbidden" }

// MapError translates the data layer's sentinel errors into transport
// errors; anything unrecognized is a 500.
func MapError(err error, thing string) AppError {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return &ErrNotFound{Cause: err, Thing: thing}
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrTooManyTags),
		errors.Is(err, models.ErrEmptyContent),
		errors.Is(err, models.ErrUsernameTaken):
		return &ErrBadRequest{Cause: err, Motivation: err.Error()}
	case errors.Is(err, models.ErrBadCredentials):
		return &ErrMustLogin{}
	case errors.Is(err, models.ErrUnauthorized):
		return &ErrMustLogin{}
	case errors.Is(err, models.ErrPermDenied):
		return &ErrForbidden{}
	default:
		return &ErrInternal{Cause: err}
	}
}

func (routes *Routes) AppHandler(handler func(w http.ResponseWriter, r *http.Request) AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appErr := handler(w, r)
		if appErr == nil {
			return
		}
		routes.respondJSON(w, r, appErr.Status(), map[string]string{"message": appErr.Message()})

		evt := hlog.FromRequest(r).Warn()
		if appErr.Status() >= http.StatusInternalServerError {
			evt = hlog.FromRequest(r).Error()
		}
		evt.
			Int("status", appErr.Status()).
			Err(appErr).
			Msg(appErr.Message())
	}
}

func (routes *Routes) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encoding response")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// IdentityCtx resolves the session cookie, if any, into the caller's
// identity. Requests without a valid session proceed anonymously; the
// EnforceIdentity middleware is what rejects them.
func (routes *Routes) IdentityCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := routes.db.IdentityFromToken(r.Context(), cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), identityCtxKey, &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity returns the caller's identity or nil for anonymous requests.
func GetIdentity(r *http.Request) *models.Identity {
	identity, _ := r.Context().Value(identityCtxKey).(*models.Identity)
	return identity
}

func (routes *Routes) EnforceIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r) == nil {
			routes.respondJSON(w, r, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (routes *Routes) EnforceModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r)
		if identity == nil {
			routes.respondJSON(w, r, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
			return
		}
		if !identity.IsModerator() {
			routes.respondJSON(w, r, http.StatusForbidden, map[string]string{"message": "Forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (routes *Routes) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := strconv.Itoa(ww.Status())
		routes.metrics.RequestsTotal.WithLabelValues(r.Method, status).Inc()
		routes.metrics.RequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
	})
}

func (routes *Routes) GetHealth(w http.ResponseWriter, r *http.Request) AppError {
	if err := routes.db.Ping(r.Context()); err != nil {
		return &ErrInternal{Cause: err, PubMsg: "database unreachable"}
	}
	routes.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (routes *Routes) GetTags(w http.ResponseWriter, r *http.Request) AppError {
	counts, err := routes.db.ListTagCounts(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	routes.respondJSON(w, r, http.StatusOK, counts)
	return nil
}
