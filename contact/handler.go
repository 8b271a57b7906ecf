// contact/handler.go
package contact

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/contactd/httputil"
	"github.com/dalemusser/contactd/metrics"
)

// Handler serves the contact-form endpoint: origin guard, body decode,
// validation, storage. All error-to-response mapping happens here.
type Handler struct {
	store  *Store
	guard  *Guard
	logger *zap.Logger
}

// NewHandler wires the submission pipeline together.
func NewHandler(store *Store, guard *Guard, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, logger: logger}
}

// submitRequest uses pointers so that missing fields are distinguishable
// from empty strings. Unknown extra fields are ignored.
type submitRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Subject *string `json:"subject"`
	Message *string `json:"message"`
}

// Submit handles POST /contact.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if perr := h.guard.Check(r); perr != nil {
		metrics.CountSubmission("rejected_origin")
		h.logger.Warn("submission rejected by origin guard",
			zap.Int("status", perr.Status),
			zap.String("host", r.Host),
			zap.String("referer", r.Header.Get("Referer")),
		)
		httputil.JSONErrorSimple(w, perr.Status, perr.Message)
		return
	}

	var req submitRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		metrics.CountSubmission("rejected_body")
		httputil.JSONErrorSimple(w, http.StatusBadRequest, err.Error())
		return
	}
	if name, missing := missingField(req); missing {
		metrics.CountSubmission("rejected_body")
		httputil.JSONErrorSimple(w, http.StatusBadRequest, fmt.Sprintf("missing field %q", name))
		return
	}

	sub := Submission{
		Name:    *req.Name,
		Email:   *req.Email,
		Subject: *req.Subject,
		Message: *req.Message,
	}
	if err := Validate(sub); err != nil {
		metrics.CountSubmission("rejected_validation")
		httputil.JSONErrorSimple(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.store.Insert(r.Context(), sub)
	if err != nil {
		metrics.CountSubmission("storage_error")
		h.logger.Error("failed to store contact submission", zap.Error(err))
		httputil.JSONErrorSimple(w, http.StatusInternalServerError, "Failed to store contact form")
		return
	}

	metrics.CountSubmission("created")
	h.logger.Info("contact submission stored", zap.Int64("id", id))
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Contact form submitted successfully",
	})
}

func missingField(req submitRequest) (string, bool) {
	switch {
	case req.Name == nil:
		return "name", true
	case req.Email == nil:
		return "email", true
	case req.Subject == nil:
		return "subject", true
	case req.Message == nil:
		return "message", true
	}
	return "", false
}
