package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/healthpath/healthpath-go/pkg/assessment"
	"github.com/healthpath/healthpath-go/pkg/logging"
	"github.com/healthpath/healthpath-go/pkg/models"
)

// maxRequestBody caps assessment request bodies
const maxRequestBody = 1 << 20

// AssessmentHandler handles assessment and reference requests
type AssessmentHandler struct {
	service *assessment.Service
	log     *logging.FieldLogger
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(service *assessment.Service) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		log:     logging.GetLogger().WithFields(logging.Component("api")),
	}
}

// HandleCreateAssessment classifies one individual
func (h *AssessmentHandler) HandleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.AssessmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	a, err := h.service.Classify(r.Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("Assessment failed", err, logging.RequestID(RequestID(r.Context())))
		}
		writeErrorResponse(w, status, err.Error())
		return
	}

	h.log.Info("Assessment created",
		logging.String("assessment_id", a.ID),
		logging.Int("group", a.Group),
		logging.Int("advisories", len(a.Advisories)),
		logging.RequestID(RequestID(r.Context())))

	writeJSONResponse(w, http.StatusCreated, a)
}

// HandleGetReference describes the loaded reference population
func (h *AssessmentHandler) HandleGetReference(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Reference()
	if err != nil {
		writeErrorResponse(w, statusFor(err), err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, summary)
}

// HandleReloadReference reloads and refits the reference population
func (h *AssessmentHandler) HandleReloadReference(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Reload(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Failed to reload reference: %v", err))
		return
	}
	writeJSONResponse(w, http.StatusOK, summary)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, assessment.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, assessment.ErrNotReady),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
