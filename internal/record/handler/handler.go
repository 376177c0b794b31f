// Package handler is the thin HTTP layer over the record service. It
// decodes, delegates, and encodes; business rules live below.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taxrelief/internal/classification"
	"taxrelief/internal/record/service"
	"taxrelief/internal/validation"
	id "taxrelief/pkg/domain"
	dErrors "taxrelief/pkg/domain-errors"
	"taxrelief/pkg/platform/httputil"
	"taxrelief/pkg/requestcontext"
)

// Handler wires record endpoints to the record service and the two engines.
type Handler struct {
	service  *service.Service
	pipeline *validation.Pipeline
	engine   *classification.Engine
	logger   *slog.Logger
}

// New constructs a record handler with its dependencies.
func New(svc *service.Service, pipeline *validation.Pipeline, engine *classification.Engine, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		pipeline: pipeline,
		engine:   engine,
		logger:   logger,
	}
}

// Register mounts record endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleCreate)
	r.Get("/records/{recordID}", h.HandleGet)
	r.Get("/records/{recordID}/history", h.HandleHistory)
	r.Post("/records/{recordID}/validate", h.HandleValidate)
	r.Post("/records/{recordID}/classify", h.HandleClassify)
	r.Post("/records/{recordID}/status", h.HandleStatus)
	r.Post("/records/{recordID}/justification", h.HandleJustify)
	r.Post("/records/validate-batch", h.HandleValidateBatch)
	r.Post("/records/classify-batch", h.HandleClassifyBatch)
}

func (h *Handler) recordID(r *http.Request) (id.RecordID, error) {
	return id.ParseRecordID(chi.URLParam(r, "recordID"))
}

// HandleCreate handles POST /records.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[CreateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.service.Create(ctx, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "record creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "record created",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", rec.ID,
		"direction", rec.Direction,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleGet handles GET /records/{recordID}, optionally as of a past moment
// via the as_of query parameter (RFC 3339).
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := h.recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if asOfParam := r.URL.Query().Get("as_of"); asOfParam != "" {
		asOf, parseErr := time.Parse(time.RFC3339, asOfParam)
		if parseErr != nil {
			httputil.WriteError(w, dErrors.Wrap(parseErr, dErrors.CodeInvalidInput, "as_of must be RFC 3339"))
			return
		}
		rec, svcErr := h.service.Reconstruct(ctx, recordID, asOf)
		if svcErr != nil {
			httputil.WriteError(w, svcErr)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
		return
	}

	rec, err := h.service.Current(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleHistory handles GET /records/{recordID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	recordID, err := h.recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.History(r.Context(), recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// HandleValidate handles POST /records/{recordID}/validate: one pipeline run,
// one appended validated event.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := h.recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Current(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, score := h.pipeline.Run(ctx, rec)
	if _, err := h.service.RecordValidation(ctx, recordID, result, score); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidationResponse{Result: result, Score: score})
}

// HandleClassify handles POST /records/{recordID}/classify.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := h.recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Current(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outcome, err := h.engine.Classify(ctx, rec)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "classification failed"))
		return
	}
	if !outcome.Classified {
		httputil.WriteJSON(w, http.StatusOK, ClassifyResponse{Classified: false})
		return
	}
	if _, err := h.service.ApplyClassification(ctx, recordID, outcome); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClassifyResponse{
		Classified: true,
		Category:   outcome.Category.String(),
		Rate:       outcome.Rate,
		Source:     string(outcome.Source),
	})
}

// HandleStatus handles POST /records/{recordID}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := h.recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[StatusRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := id.ParseRecordStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unknown status"))
		return
	}

	rec, err := h.service.ChangeStatus(ctx, recordID, status, req.Override, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "record status changed",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", recordID,
		"status", status,
		"override", req.Override,
	)
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleJustify handles POST /records/{recordID}/justification.
func (h *Handler) HandleJustify(w http.ResponseWriter, r *http.Request) {
	recordID, err := h.recordID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.Decode[JustifyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Justify(r.Context(), recordID, req.Text)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleValidateBatch handles POST /records/validate-batch.
func (h *Handler) HandleValidateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.ValidateAll(ctx, h.pipeline)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "batch validation finished",
		"request_id", requestcontext.RequestID(ctx),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"warned", result.Warned,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleClassifyBatch handles POST /records/classify-batch.
func (h *Handler) HandleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.ClassifyAll(ctx, h.engine)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "batch classification finished",
		"request_id", requestcontext.RequestID(ctx),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"warned", result.Warned,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
