package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/trentleslie/expert-in-the-loop/internal/database"
)

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.db.ListCampaigns()
	if err != nil {
		internalError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []database.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

type campaignPayload struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	CampaignType string  `json:"campaign_type"`
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var payload campaignPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := s.db.InsertCampaign(strings.TrimSpace(payload.Name), payload.Description, payload.CampaignType)
	if err != nil {
		internalError(w, err)
		return
	}
	campaign, err := s.db.GetCampaign(id)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	pairCount, err := s.db.CountPairs(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	voteCount, err := s.db.CountVotes(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign":   campaign,
		"pair_count": pairCount,
		"vote_count": voteCount,
	})
}

type statusPayload struct {
	Status string `json:"status"`
}

func (s *Server) handleCampaignStatus(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	var payload statusPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	err := s.db.SetCampaignStatus(campaign.ID, payload.Status)
	if errors.Is(err, database.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	updated, err := s.db.GetCampaign(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.ListUsers()
	if err != nil {
		internalError(w, err)
		return
	}
	if users == nil {
		users = []database.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type userPayload struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.Email == "" || payload.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "email and display_name are required")
		return
	}

	id, err := s.db.InsertUser(payload.Email, payload.DisplayName, payload.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	if id == 0 {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	user, err := s.db.GetUser(id)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
