package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/algotracker/pkg/http/errors"
)

const maxBodyBytes = 1 << 20

// HTTPHandler exposes the solved-question lists over REST.
type HTTPHandler struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a tracker HTTP handler.
func NewHTTPHandler(registry *Registry, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		registry: registry,
		logger:   logger.With().Str("component", "tracker_http").Logger(),
	}
}

// ReorderRequest mirrors a drag gesture. A null destination means the drag
// was cancelled.
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type QuestionResponse struct {
	Question Question `json:"question"`
	State    State    `json:"state"`
}

type RemoveResponse struct {
	Removed bool  `json:"removed"`
	State   State `json:"state"`
}

type StatusResponse struct {
	Slug    string `json:"slug"`
	Loading bool   `json:"loading"`
	Status  Status `json:"status"`
}

// ListQuestions handles GET /v1/algorithms/{slug}/questions
func (h *HTTPHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	list, ok := h.open(w, r)
	if !ok {
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, list.Snapshot())
}

// GetStatus handles GET /v1/algorithms/{slug}/status
func (h *HTTPHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	list, ok := h.open(w, r)
	if !ok {
		return
	}
	state := list.Snapshot()
	httperrors.RespondJSON(w, http.StatusOK, StatusResponse{
		Slug:    state.Slug,
		Loading: state.Loading,
		Status:  state.Status,
	})
}

// CreateQuestion handles POST /v1/algorithms/{slug}/questions
func (h *HTTPHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q Question
	if !h.decode(w, r, &q) {
		return
	}
	list, ok := h.open(w, r)
	if !ok {
		return
	}

	added, state, err := list.Add(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.logger.Info().Str("slug", state.Slug).Int64("question_id", added.ID).Msg("question added")
	httperrors.RespondJSON(w, http.StatusCreated, QuestionResponse{Question: added, State: state})
}

// UpdateQuestion handles PUT /v1/algorithms/{slug}/questions/{id}
func (h *HTTPHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.questionID(w, r)
	if !ok {
		return
	}
	var q Question
	if !h.decode(w, r, &q) {
		return
	}
	q.ID = id

	list, ok := h.open(w, r)
	if !ok {
		return
	}
	edited, state, err := list.Edit(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, QuestionResponse{Question: edited, State: state})
}

// DeleteQuestion handles DELETE /v1/algorithms/{slug}/questions/{id}?confirm=true
//
// The confirm query parameter is the user's answer to the removal prompt.
func (h *HTTPHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.questionID(w, r)
	if !ok {
		return
	}
	list, ok := h.open(w, r)
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	state, removed, err := list.Remove(r.Context(), id, ConfirmFunc(func(_ context.Context, _ Question) bool {
		return confirmed
	}))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, RemoveResponse{Removed: removed, State: state})
}

// ReorderQuestions handles POST /v1/algorithms/{slug}/questions/reorder
func (h *HTTPHandler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.From == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidIndex, "from is required", "from")
		return
	}
	list, ok := h.open(w, r)
	if !ok {
		return
	}

	state, err := list.Reorder(r.Context(), *req.From, req.To)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, state)
}

func (h *HTTPHandler) open(w http.ResponseWriter, r *http.Request) (*List, bool) {
	list, err := h.registry.Open(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	return list, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func (h *HTTPHandler) questionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidID, "question id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
	case errors.Is(err, ErrUnknownSlug):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Algorithm not found")
	case errors.Is(err, ErrQuestionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "Question not found")
	case errors.Is(err, ErrIndexOutOfRange):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidIndex, err.Error())
	case errors.Is(err, ErrLoading):
		httperrors.RespondConflict(w, httperrors.ErrCodeConflict, "List is still loading, try again")
	case errors.Is(err, ErrClosed):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Service is shutting down")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "Request cancelled")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("tracker request failed")
		httperrors.RespondInternalError(w, "Internal server error")
	}
	if IsClientError(err) {
		h.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected tracker request")
	}
}
