package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

func (routes *Routes) PostAnswer(w http.ResponseWriter, r *http.Request) AppError {
	var req struct {
		QuestionID int    `json:"questionId"`
		Body       string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "invalid body"}
	}

	answer, err := routes.db.CreateAnswer(r.Context(), *GetIdentity(r), req.QuestionID, req.Body)
	if err != nil {
		return MapError(err, "question")
	}
	routes.respondJSON(w, r, http.StatusCreated, answer)
	return nil
}

func (routes *Routes) PostComment(w http.ResponseWriter, r *http.Request) AppError {
	var req struct {
		ParentKind string `json:"parentKind"`
		ParentID   int    `json:"parentId"`
		Body       string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "invalid body"}
	}
	parentKind, err := models.ParseContentKind(req.ParentKind)
	if err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "unknown parent kind"}
	}

	comment, err := routes.db.CreateComment(r.Context(), *GetIdentity(r), parentKind, req.ParentID, req.Body)
	if err != nil {
		return MapError(err, string(parentKind))
	}
	routes.respondJSON(w, r, http.StatusCreated, comment)
	return nil
}

// PostVote applies an up or down vote to any kind of content. Repeating the
// same vote is a no-op; voting the other way moves the count by two.
func (routes *Routes) PostVote(w http.ResponseWriter, r *http.Request) AppError {
	vote, err := models.ParseVoteType(chi.URLParam(r, "direction"))
	if err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "unknown vote direction"}
	}

	var req struct {
		Kind string `json:"kind"`
		ID   int    `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "invalid body"}
	}
	kind, err := models.ParseContentKind(req.Kind)
	if err != nil {
		return &ErrBadRequest{Cause: err, Motivation: "unknown content kind"}
	}

	result, err := routes.db.ApplyVote(r.Context(), kind, req.ID, GetIdentity(r).UserID, vote)
	if err != nil {
		routes.metrics.VotesProcessed.WithLabelValues(string(kind), "error").Inc()
		return MapError(err, string(kind))
	}
	outcome := "applied"
	if !result.Applied {
		outcome = "duplicate"
	}
	routes.metrics.VotesProcessed.WithLabelValues(string(kind), outcome).Inc()

	routes.respondJSON(w, r, http.StatusOK, result)
	return nil
}
