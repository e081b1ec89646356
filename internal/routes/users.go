package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

func (routes *Routes) LoginRouter(r chi.Router) {
	r.Post("/register", routes.AppHandler(routes.PostRegister))
	r.Post("/authenticate", routes.AppHandler(routes.PostAuthenticate))
	r.With(routes.EnforceIdentity).Post("/signout", routes.AppHandler(routes.PostSignout))
}

func (routes *Routes) UsersRouter(r chi.Router) {
	r.Get("/", routes.AppHandler(routes.GetUsers))
	r.Get("/{username}", routes.AppHandler(routes.GetUser))
}

func (routes *Routes) PostRegister(w http.ResponseWriter, r *http.Request) AppError {
	var req struct {
		Username     string   `json:"username"`
		Password     string   `json:"password"`
		Firstname    string   `json:"firstname"`
		Lastname     string   `json:"lastname"`
		ProfilePic   string   `json:"profilePic"`
		Location     string   `json:"location"`
		Technologies []string `json:"technologies"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "invalid body"}
	}

	user := &models.User{
		Username:     req.Username,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		ProfilePic:   req.ProfilePic,
		Location:     req.Location,
		Technologies: req.Technologies,
	}
	if err := routes.db.CreateUser(r.Context(), user, req.Password); err != nil {
		return MapError(err, "user")
	}
	routes.respondJSON(w, r, http.StatusCreated, user)
	return nil
}

func (routes *Routes) PostAuthenticate(w http.ResponseWriter, r *http.Request) AppError {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "invalid body"}
	}

	token, err := routes.db.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return MapError(err, "user")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   routes.secure,
		SameSite: http.SameSiteLaxMode,
	})
	routes.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (routes *Routes) PostSignout(w http.ResponseWriter, r *http.Request) AppError {
	cookie, err := r.Cookie(SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := routes.db.Signout(r.Context(), cookie.Value); err != nil {
			return &ErrInternal{Cause: err}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   routes.secure,
		SameSite: http.SameSiteLaxMode,
	})
	routes.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func (routes *Routes) GetUsers(w http.ResponseWriter, r *http.Request) AppError {
	users, err := routes.db.ListUsers(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	routes.respondJSON(w, r, http.StatusOK, users)
	return nil
}

func (routes *Routes) GetUser(w http.ResponseWriter, r *http.Request) AppError {
	details, err := routes.db.GetUserDetails(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		return MapError(err, "user")
	}
	routes.respondJSON(w, r, http.StatusOK, details)
	return nil
}
