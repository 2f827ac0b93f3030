package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/service"
)

// Handler holds API route handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// pipelineParam extracts the {pipeline} URL parameter.
func pipelineParam(r *http.Request) models.Pipeline {
	return models.Pipeline(chi.URLParam(r, "pipeline"))
}

// writeErr maps service errors onto status codes. Internals are logged,
// never leaked.
func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// RunAnalysis handles POST /api/analysis.
//
//	@Summary		Run analyzers for a pipeline over a lookback window
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AnalyzeRequest	true	"Pipeline and lookback"
//	@Success		200		{object}	AnalysisResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analysis [post]
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.RunAnalysis(r.Context(), req.Pipeline, req.LookbackDays)
	if err != nil {
		writeErr(w, "analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetTactics handles GET /api/tactics/{pipeline}.
//
//	@Summary		Get a pipeline's tactics document
//	@Tags			tactics
//	@Produce		json
//	@Param			pipeline	path		string	true	"Pipeline name"
//	@Success		200			{object}	models.TacticsDoc
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tactics/{pipeline} [get]
func (h *Handler) GetTactics(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetTactics(r.Context(), pipelineParam(r))
	if err != nil {
		writeErr(w, "get tactics", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ApplyUpdates handles POST /api/tactics/{pipeline}/updates.
//
//	@Summary		Apply an evidence-backed tactics update batch
//	@Tags			tactics
//	@Accept			json
//	@Produce		json
//	@Param			pipeline	path		string			true	"Pipeline name"
//	@Param			body		body		UpdatesRequest	true	"Update batch"
//	@Success		200			{object}	UpdateResult
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tactics/{pipeline}/updates [post]
func (h *Handler) ApplyUpdates(w http.ResponseWriter, r *http.Request) {
	var req UpdatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.ApplyTacticsUpdates(r.Context(), pipelineParam(r), req.Updates)
	if err != nil {
		writeErr(w, "apply updates", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// BuildContext handles GET /api/context/{pipeline}.
//
//	@Summary		Assemble the generation brief for a pipeline
//	@Tags			context
//	@Produce		json
//	@Param			pipeline	path		string	true	"Pipeline name"
//	@Success		200			{object}	ContextResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/context/{pipeline} [get]
func (h *Handler) BuildContext(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.BuildContext(r.Context(), pipelineParam(r))
	if err != nil {
		writeErr(w, "build context", err)
		return
	}
	writeJSON(w, http.StatusOK, ContextResponse{Brief: b, Rendered: b.Render()})
}

// Ingest handles POST /api/ingest.
//
//	@Summary		Match scraped metric snapshots to history and apply them
//	@Tags			ingest
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IngestRequest	true	"Scraped snapshots"
//	@Success		200		{object}	ingest.Result
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ingest [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.IngestMetrics(r.Context(), req.Snapshots)
	if err != nil {
		writeErr(w, "ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RecordPost handles POST /api/posts.
//
//	@Summary		Record a published post in history
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecordPostRequest	true	"Published post"
//	@Success		201		{object}	models.PostRecord
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [post]
func (h *Handler) RecordPost(w http.ResponseWriter, r *http.Request) {
	var req RecordPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.svc.RecordPost(r.Context(), req)
	if err != nil {
		writeErr(w, "record post", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List recent posts for a pipeline
//	@Tags			posts
//	@Produce		json
//	@Param			pipeline	query		string	true	"Pipeline name"
//	@Param			limit		query		int		false	"Max results"
//	@Success		200			{object}	PostListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	posts, err := h.svc.ListPosts(r.Context(), models.Pipeline(q.Get("pipeline")), limit)
	if err != nil {
		writeErr(w, "list posts", err)
		return
	}
	if posts == nil {
		posts = []models.PostRecord{}
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}

// CheckConstitution handles POST /api/constitution/check.
//
//	@Summary		Check candidate content against the rules document
//	@Tags			constitution
//	@Accept			json
//	@Produce		json
//	@Param			pipeline	query		string			true	"Pipeline name"
//	@Param			body		body		CheckRequest	true	"Candidate content"
//	@Success		200			{object}	CheckResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/constitution/check [post]
func (h *Handler) CheckConstitution(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	p := models.Pipeline(r.URL.Query().Get("pipeline"))
	violations, err := h.svc.CheckConstitution(r.Context(), p, req.Caption, req.Hashtags)
	if err != nil {
		writeErr(w, "constitution check", err)
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Allowed: len(violations) == 0, Violations: violations})
}

// GetConstitution handles GET /api/constitution.
//
//	@Summary		Get the rules document
//	@Tags			constitution
//	@Produce		json
//	@Success		200	{object}	models.ConstitutionDoc
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/constitution [get]
func (h *Handler) GetConstitution(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetConstitution(r.Context())
	if err != nil {
		writeErr(w, "get constitution", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ReplaceConstitution handles PUT /api/constitution (operator only).
//
//	@Summary		Replace the rules document
//	@Tags			constitution
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.ConstitutionDoc	true	"New rules document"
//	@Success		200		{object}	models.ConstitutionDoc
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/constitution [put]
func (h *Handler) ReplaceConstitution(w http.ResponseWriter, r *http.Request) {
	var doc models.ConstitutionDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.ReplaceConstitution(r.Context(), &doc); err != nil {
		writeErr(w, "replace constitution", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetSoul handles GET /api/soul.
//
//	@Summary		Get the identity document
//	@Tags			soul
//	@Produce		json
//	@Success		200	{object}	models.SoulDoc
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/soul [get]
func (h *Handler) GetSoul(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetSoul(r.Context())
	if err != nil {
		writeErr(w, "get soul", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Propose handles POST /api/proposals.
//
//	@Summary		Raise an identity-change proposal
//	@Tags			proposals
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ProposalRequest	true	"Proposal"
//	@Success		201		{object}	models.SoulProposal
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/proposals [post]
func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	prop, err := h.svc.ProposeIdentityChange(r.Context(), req.Field, req.Value, req.Reason, req.Evidence, req.PostIDs)
	if err != nil {
		writeErr(w, "propose", err)
		return
	}
	writeJSON(w, http.StatusCreated, prop)
}

// ListProposals handles GET /api/proposals.
//
//	@Summary		List identity proposals
//	@Tags			proposals
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(pending, approved, rejected)
//	@Success		200		{object}	ProposalListResponse
//	@Security		BearerAuth
//	@Router			/proposals [get]
func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.ListProposals(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeErr(w, "list proposals", err)
		return
	}
	writeJSON(w, http.StatusOK, ProposalListResponse{Proposals: props})
}

// ResolveProposal handles POST /api/proposals/{id}/resolve (operator only).
//
//	@Summary		Approve or reject a pending proposal
//	@Tags			proposals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Proposal id"
//	@Param			body	body		ResolveRequest	true	"Resolution"
//	@Success		200		{object}	models.SoulProposal
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/proposals/{id}/resolve [post]
func (h *Handler) ResolveProposal(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	prop, err := h.svc.ResolveProposal(r.Context(), chi.URLParam(r, "id"), req.Approve)
	if err != nil {
		writeErr(w, "resolve proposal", err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

// RunCycle handles POST /api/cycle.
//
//	@Summary		Run the full nightly cycle immediately
//	@Tags			cycle
//	@Produce		json
//	@Success		200	{object}	orchestrator.CycleResult
//	@Security		BearerAuth
//	@Router			/cycle [post]
func (h *Handler) RunCycle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.RunCycle(r.Context()))
}

// Events handles GET /api/events.
//
//	@Summary		Drain pending events
//	@Tags			events
//	@Produce		json
//	@Success		200	{array}	events.Event
//	@Security		BearerAuth
//	@Router			/events [get]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DrainEvents(r.Context()))
}
