// Package server exposes the review core as a JSON REST API. It is a
// thin layer: existence checks, payload decoding, and error-to-status
// mapping around the database, selector, and agreement packages.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trentleslie/expert-in-the-loop/internal/agreement"
	"github.com/trentleslie/expert-in-the-loop/internal/database"
	"github.com/trentleslie/expert-in-the-loop/internal/selector"
)

// Server is the HTTP server for the review API.
type Server struct {
	db       *database.DB
	selector *selector.Selector
	engine   *agreement.Engine
	router   chi.Router
}

// New creates a Server over the given database.
func New(db *database.DB, opts ...Option) *Server {
	s := &Server{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.selector == nil {
		s.selector = selector.New(db)
	}
	if s.engine == nil {
		s.engine = agreement.New(db)
	}
	s.router = chi.NewRouter()
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithSelector injects a configured next-pair selector.
func WithSelector(sel *selector.Selector) Option {
	return func(s *Server) { s.selector = sel }
}

// WithEngine injects a configured agreement engine.
func WithEngine(e *agreement.Engine) Option {
	return func(s *Server) { s.engine = e }
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/campaigns", s.handleListCampaigns)
		r.Post("/campaigns", s.handleCreateCampaign)
		r.Get("/campaigns/{id}", s.handleGetCampaign)
		r.Post("/campaigns/{id}/status", s.handleCampaignStatus)

		r.Get("/campaigns/{id}/next-pair", s.handleNextPair)
		r.Post("/pairs/{id}/votes", s.handleCreateVote)
		r.Put("/pairs/{id}/votes/{userID}", s.handleEditVote)
		r.Post("/pairs/{id}/skip", s.handleSkip)

		r.Get("/campaigns/{id}/agreement", s.handleAgreement)
		r.Get("/campaigns/{id}/distribution", s.handleDistribution)
		r.Get("/campaigns/{id}/reviewers", s.handleReviewers)
		r.Get("/campaigns/{id}/disagreements", s.handleDisagreements)
		r.Get("/campaigns/{id}/confidence-bands", s.handleConfidenceBands)
		r.Get("/campaigns/{id}/skips", s.handleSkipAnalysis)
		r.Get("/votes-over-time", s.handleVotesOverTime)

		r.Get("/users", s.handleListUsers)
		r.Post("/users", s.handleCreateUser)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getCampaign loads the campaign from the {id} URL parameter, writing
// the error response itself when the ID is bad or unknown.
func (s *Server) getCampaign(w http.ResponseWriter, r *http.Request) *database.Campaign {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil
	}
	campaign, err := s.db.GetCampaign(id)
	if err != nil {
		internalError(w, err)
		return nil
	}
	if campaign == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("campaign %d not found", id))
		return nil
	}
	return campaign
}
