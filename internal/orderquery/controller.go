package orderquery

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "potracker/internal/errors"
	"potracker/internal/export"
)

const maxSearchPONumbers = 100

type Controller struct {
	useCase QueryUseCase
	logger  *zap.Logger
}

func NewController(useCase QueryUseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *Controller) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	resp, err := c.useCase.ListOrders(r.Context())
	if err != nil {
		c.writeInternalError(w, "list orders failed", err)
		return
	}
	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	poNumber := strings.TrimSpace(chi.URLParam(r, "poNumber"))
	if poNumber == "" {
		c.writeValidationError(w, "poNumber is required", apperrors.ValidationDetail{
			Field:   "poNumber",
			Message: "poNumber must not be empty",
		})
		return
	}

	resp, err := c.useCase.GetOrder(r.Context(), poNumber)
	if err != nil {
		if nf, ok := apperrors.IsNotFoundError(err); ok {
			c.writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "NOT_FOUND",
				"message": nf.Message,
			})
			return
		}
		c.writeInternalError(w, "get order failed", err)
		return
	}
	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) HandleSearchOrders(w http.ResponseWriter, r *http.Request) {
	var req SearchOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.validateSearchRequest(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	resp, err := c.useCase.SearchOrders(r.Context(), req)
	if err != nil {
		c.writeInternalError(w, "search orders failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) HandleExportOrders(w http.ResponseWriter, r *http.Request) {
	data, err := c.useCase.ExportOrders(r.Context())
	if err != nil {
		c.writeInternalError(w, "export orders failed", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		c.logger.Error("failed to write export", zap.Error(err))
	}
}

func (c *Controller) validateSearchRequest(req SearchOrdersRequest) error {
	if len(req.PONumbers) == 0 {
		return apperrors.NewValidationError("poNumbers is required", apperrors.ValidationDetail{
			Field:   "poNumbers",
			Message: "poNumbers must not be empty",
		})
	}

	if len(req.PONumbers) > maxSearchPONumbers {
		msg := "poNumbers exceeds maximum of 100"
		return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   "poNumbers",
			Message: msg,
		})
	}

	for _, po := range req.PONumbers {
		if strings.TrimSpace(po) == "" {
			msg := "each poNumber must be non-empty"
			return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
				Field:   "poNumbers",
				Message: msg,
			})
		}
	}

	return nil
}

func (c *Controller) writeInternalError(w http.ResponseWriter, msg string, err error) {
	c.logger.Error(msg, zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "INTERNAL_ERROR",
		"message": "an unexpected error occurred",
	})
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *Controller) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
