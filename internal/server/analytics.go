package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleAgreement(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	summary, err := s.engine.Agreement(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	distribution, err := s.engine.VoteDistribution(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distribution)
}

func (s *Server) handleReviewers(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	stats, err := s.engine.ReviewerStats(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDisagreements(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	pairs, err := s.engine.HighDisagreementPairs(campaign.ID, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (s *Server) handleConfidenceBands(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	bands, err := s.engine.DisagreementByConfidence(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bands)
}

func (s *Server) handleSkipAnalysis(w http.ResponseWriter, r *http.Request) {
	campaign := s.getCampaign(w, r)
	if campaign == nil {
		return
	}
	stats, err := s.engine.SkipAnalysis(campaign.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVotesOverTime(w http.ResponseWriter, r *http.Request) {
	var campaignID *int64
	if raw := r.URL.Query().Get("campaign_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid campaign_id")
			return
		}
		campaign, err := s.db.GetCampaign(id)
		if err != nil {
			internalError(w, err)
			return
		}
		if campaign == nil {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		campaignID = &id
	}

	points, err := s.engine.VotesOverTime(campaignID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
