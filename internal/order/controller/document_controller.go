package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"potracker/internal/classification"
	"potracker/internal/domain"
	"potracker/internal/dto"
	apperrors "potracker/internal/errors"
)

const formFileField = "file"

type SubmitDocumentUseCase interface {
	Submit(ctx context.Context, doc classification.Document) (domain.Outcome, error)
}

type DocumentController struct {
	useCase        SubmitDocumentUseCase
	logger         *zap.Logger
	uploadMaxBytes int64
}

func NewDocumentController(useCase SubmitDocumentUseCase, logger *zap.Logger, uploadMaxBytes int64) *DocumentController {
	return &DocumentController{
		useCase:        useCase,
		logger:         logger,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// Submit handles POST /documents.
func (c *DocumentController) Submit(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	r.Body = http.MaxBytesReader(w, r.Body, c.uploadMaxBytes)
	if err := r.ParseMultipartForm(c.uploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("upload too large", zap.Int64("limit", tooLarge.Limit))
			c.writeErrorResponse(w, traceID, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "document exceeds the upload limit")
			return
		}
		logger.Warn("invalid multipart body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid multipart body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be multipart/form-data",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formFileField)
	if err != nil {
		logger.Warn("missing file part", zap.Error(err))
		c.writeValidationError(w, traceID, "no file part", apperrors.ValidationDetail{
			Field:   formFileField,
			Message: "file is required",
		})
		return
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		c.writeValidationError(w, traceID, "no selected file", apperrors.ValidationDetail{
			Field:   formFileField,
			Message: "filename must not be empty",
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("failed to read upload", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
		return
	}
	if len(data) == 0 {
		c.writeValidationError(w, traceID, "empty file", apperrors.ValidationDetail{
			Field:   formFileField,
			Message: "file must not be empty",
		})
		return
	}

	doc := classification.Document{
		Filename: header.Filename,
		MIMEType: detectMIMEType(header.Header.Get("Content-Type"), data),
		Data:     data,
	}

	outcome, err := c.useCase.Submit(r.Context(), doc)
	statusCode := statusForOutcome(outcome)
	if err != nil {
		if _, ok := apperrors.IsTransientIOError(err); ok {
			statusCode = http.StatusServiceUnavailable
		}
		logger.Warn("submission failed", zap.String("filename", doc.Filename), zap.Error(err))
	}

	logger.Info("document processed",
		zap.String("filename", doc.Filename),
		zap.String("outcome", string(outcome.Kind)),
		zap.String("poNumber", outcome.PONumber),
		zap.Int("status", statusCode),
	)

	c.writeJSON(w, statusCode, dto.SubmitDocumentResponse{
		TraceID:   traceID,
		Filename:  doc.Filename,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	})
}

func statusForOutcome(outcome domain.Outcome) int {
	switch outcome.Kind {
	case domain.OutcomeCreated:
		return http.StatusCreated
	case domain.OutcomeStatusUpdated, domain.OutcomeSkipped:
		return http.StatusOK
	case domain.OutcomeDuplicate, domain.OutcomeRejected:
		return http.StatusConflict
	case domain.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func detectMIMEType(declared string, data []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	if sniffed, _, err := mime.ParseMediaType(http.DetectContentType(data)); err == nil && sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed
	}
	return classification.MIMETypePDF
}

func (c *DocumentController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code string, message string) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *DocumentController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *DocumentController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
