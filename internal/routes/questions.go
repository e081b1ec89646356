package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akshaychavan7/ByteExchange/internal/ranking"
	"github.com/akshaychavan7/ByteExchange/internal/search"
)

func (routes *Routes) QuestionsRouter(r chi.Router) {
	r.Get("/", routes.AppHandler(routes.GetQuestions))
	r.Get("/trending", routes.AppHandler(routes.GetTrending))
	r.Get("/{questionID}", routes.AppHandler(routes.GetQuestion))
	r.With(routes.EnforceIdentity).Post("/", routes.AppHandler(routes.PostQuestion))
}

// GetQuestions lists visible questions, ordered by the requested policy
// and narrowed by the optional search expression.
func (routes *Routes) GetQuestions(w http.ResponseWriter, r *http.Request) AppError {
	policy, err := ranking.ParsePolicy(r.URL.Query().Get("order"))
	if err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "unknown order"}
	}

	questions, err := routes.db.ListQuestions(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	questions = search.Filter(questions, r.URL.Query().Get("search"))
	questions = ranking.Order(questions, policy)

	routes.respondJSON(w, r, http.StatusOK, questions)
	return nil
}

func (routes *Routes) GetTrending(w http.ResponseWriter, r *http.Request) AppError {
	questions, err := routes.db.TrendingQuestions(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err}
	}
	routes.respondJSON(w, r, http.StatusOK, questions)
	return nil
}

func (routes *Routes) GetQuestion(w http.ResponseWriter, r *http.Request) AppError {
	id, err := strconv.Atoi(chi.URLParam(r, "questionID"))
	if err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "bad question id"}
	}

	detail, err := routes.db.GetQuestionDetail(r.Context(), id, GetIdentity(r))
	if err != nil {
		return MapError(err, "question")
	}
	routes.respondJSON(w, r, http.StatusOK, detail)
	return nil
}

func (routes *Routes) PostQuestion(w http.ResponseWriter, r *http.Request) AppError {
	var req struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Tags  []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "invalid body"}
	}

	question, err := routes.db.CreateQuestion(r.Context(), *GetIdentity(r), req.Title, req.Body, req.Tags)
	if err != nil {
		return MapError(err, "question")
	}
	routes.respondJSON(w, r, http.StatusCreated, question)
	return nil
}
