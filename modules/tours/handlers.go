package tours

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wanderkit/wanderkit/core"
	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/session"
	"github.com/wanderkit/wanderkit/pkg/validator"
)

// Handler exposes the tours REST API. All routes require a verified
// identity; mount behind session.Validator.RequireIdentity.
type Handler struct {
	service *Service
	log     *slog.Logger
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets a custom logger for the handler.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates the tours HTTP handler.
func NewHandler(service *Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the /api/tours routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.handleCreateTour)
	r.Get("/", h.handleListTours)

	r.Route("/{tourID}", func(r chi.Router) {
		r.Get("/", h.handleGetTour)
		r.Put("/", h.handleUpdateTour)
		r.Delete("/", h.handleDeleteTour)

		r.Get("/participants", h.handleListParticipants)
		r.Post("/participants", h.handleInviteParticipant)
		r.Post("/participants/respond", h.handleRespondToInvite)
		r.Delete("/participants/{userID}", h.handleRemoveParticipant)

		r.Get("/comments", h.handleListComments)
		r.Post("/comments", h.handleAddComment)
		r.Delete("/comments/{commentID}", h.handleDeleteComment)

		r.Put("/tags", h.handleSetTags)

		r.Post("/votes", h.handleCastVote)
		r.Get("/votes", h.handleVoteResults)
	})

	return r
}

func (h *Handler) handleCreateTour(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var in CreateTourInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	tour, err := h.service.CreateTour(r.Context(), userID, in)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusCreated, tour))
}

func (h *Handler) handleListTours(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	tours, err := h.service.ListTours(r.Context(), userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if tours == nil {
		tours = []Tour{}
	}

	h.render(w, r, core.JSON(http.StatusOK, tours))
}

func (h *Handler) handleGetTour(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	tour, err := h.service.GetTour(r.Context(), tourID, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusOK, tour))
}

func (h *Handler) handleUpdateTour(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	var in CreateTourInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	tour, err := h.service.UpdateTour(r.Context(), tourID, userID, in)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusOK, tour))
}

func (h *Handler) handleDeleteTour(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	if err := h.service.DeleteTour(r.Context(), tourID, userID); err != nil {
		h.renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	participants, err := h.service.ListParticipants(r.Context(), tourID, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if participants == nil {
		participants = []Participant{}
	}

	h.render(w, r, core.JSON(http.StatusOK, participants))
}

type inviteRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func (h *Handler) handleInviteParticipant(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	locale := i18n.GetLocale(r.Context())
	if err := h.service.InviteParticipant(r.Context(), tourID, userID, req.UserID, locale); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusCreated, map[string]string{"status": "invited"}))
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

func (h *Handler) handleRespondToInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	if err := h.service.RespondToInvite(r.Context(), tourID, userID, req.Accept); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusOK, map[string]string{"status": "recorded"}))
}

func (h *Handler) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}
	targetID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.RemoveParticipant(r.Context(), tourID, callerID, targetID); err != nil {
		h.renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), tourID, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if comments == nil {
		comments = []Comment{}
	}

	h.render(w, r, core.JSON(http.StatusOK, comments))
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	comment, err := h.service.AddComment(r.Context(), tourID, userID, req.Body)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusCreated, comment))
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	commentID, ok := h.pathID(w, r, "commentID")
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), commentID, userID); err != nil {
		h.renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (h *Handler) handleSetTags(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	tags, err := h.service.SetTags(r.Context(), tourID, userID, req.Tags)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusOK, map[string][]string{"tags": tags}))
}

type voteRequest struct {
	Topic  string `json:"topic"`
	Option string `json:"option"`
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return
	}

	if err := h.service.CastVote(r.Context(), tourID, userID, req.Topic, req.Option); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, core.JSON(http.StatusOK, map[string]string{"status": "recorded"}))
}

func (h *Handler) handleVoteResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	tourID, ok := h.pathID(w, r, "tourID")
	if !ok {
		return
	}

	results, err := h.service.VoteResults(r.Context(), tourID, userID, r.URL.Query().Get("topic"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if results == nil {
		results = []VoteCount{}
	}

	h.render(w, r, core.JSON(http.StatusOK, results))
}

// callerID extracts the verified identity placed in context by the session
// middleware.
func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, ok := session.IdentityFromContext(r.Context())
	if !ok {
		h.render(w, r, core.JSONError(core.ErrUnauthorized))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(identity.UserID)
	if err != nil {
		h.render(w, r, core.JSONError(core.ErrUnauthorized))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		h.render(w, r, core.JSONError(core.ErrBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

// renderError maps domain errors to the structured API error body.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case validator.ExtractValidationErrors(err) != nil:
		h.render(w, r, core.JSONError(err))
	case errors.Is(err, ErrTourNotFound), errors.Is(err, ErrParticipantNotFound), errors.Is(err, ErrCommentNotFound):
		h.render(w, r, core.JSONError(core.ErrNotFound))
	case errors.Is(err, ErrNotOrganizer), errors.Is(err, ErrNotParticipant):
		h.render(w, r, core.JSONError(core.ErrForbidden))
	case errors.Is(err, ErrAlreadyParticipant):
		h.render(w, r, core.JSONError(core.ErrConflict))
	case errors.Is(err, ErrUserUnknown):
		h.render(w, r, core.JSONError(core.ErrBadRequest))
	default:
		h.log.ErrorContext(r.Context(), "unhandled tours error",
			logger.Error(err),
			logger.Component("tours"),
		)
		h.render(w, r, core.JSONError(core.ErrInternalServer))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, resp core.Response) {
	if err := resp.Render(w, r); err != nil {
		h.log.ErrorContext(r.Context(), "failed to render response",
			logger.Error(err),
			logger.Component("tours"),
		)
	}
}
