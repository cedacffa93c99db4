package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

// handleNextPair serves the review page's "what should I look at next"
// query. 204 means the user has worked through the whole campaign.
func (s *Server) handleNextPair(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if !s.requireUser(w, userID) {
		return
	}

	pair, err := s.selector.NextPair(campaign.ID, userID)
	if err != nil {
		internalError(w, err)
		return
	}
	if pair == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type votePayload struct {
	UserID             int64   `json:"user_id"`
	ScoringMode        string  `json:"scoring_mode"`
	ScoreBinary        *string `json:"score_binary"`
	ScoreNumeric       *int    `json:"score_numeric"`
	ExpertSelectedCode *string `json:"expert_selected_code"`
	ReviewerNotes      *string `json:"reviewer_notes"`
}

func (s *Server) handleCreateVote(w http.ResponseWriter, r *http.Request) {
	pairID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var payload votePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if !s.requirePair(w, pairID) || !s.requireUser(w, payload.UserID) {
		return
	}

	vote, err := s.db.InsertVote(pairID, payload.UserID, payload.ScoringMode,
		payload.ScoreBinary, payload.ScoreNumeric, payload.ExpertSelectedCode, payload.ReviewerNotes)
	if errors.Is(err, database.ErrDuplicateVote) {
		// Distinct signal so the UI can offer "edit existing vote".
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         err.Error(),
			"already_voted": true,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, vote)
}

func (s *Server) handleEditVote(w http.ResponseWriter, r *http.Request) {
	pairID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := urlID(w, r, "userID")
	if !ok {
		return
	}
	var payload votePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	vote, err := s.db.EditVote(pairID, userID, payload.ScoringMode,
		payload.ScoreBinary, payload.ScoreNumeric, payload.ExpertSelectedCode, payload.ReviewerNotes)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no vote to edit")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

type skipPayload struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	pairID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var payload skipPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if !s.requirePair(w, pairID) || !s.requireUser(w, payload.UserID) {
		return
	}

	if err := s.db.InsertSkip(pairID, payload.UserID); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requirePair(w http.ResponseWriter, pairID int64) bool {
	pair, err := s.db.GetPair(pairID)
	if err != nil {
		internalError(w, err)
		return false
	}
	if pair == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("pair %d not found", pairID))
		return false
	}
	return true
}

func (s *Server) requireUser(w http.ResponseWriter, userID int64) bool {
	user, err := s.db.GetUser(userID)
	if err != nil {
		internalError(w, err)
		return false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("user %d not found", userID))
		return false
	}
	return true
}
