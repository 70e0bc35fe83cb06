package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ai-directory/internal/apperror"
	"github.com/sakif/ai-directory/internal/auth"
	"github.com/sakif/ai-directory/internal/model"
	"github.com/sakif/ai-directory/internal/service"
)

// AdminHandler serves the moderation API. Every route except login and
// logout is mounted behind auth.RequireAdmin.
type AdminHandler struct {
	admin        *service.AdminService
	cookieSecure bool
	logger       *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, cookieSecure bool, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, cookieSecure: cookieSecure, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin serves POST /api/admin/login.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.admin.Login(req.Password)
	if err != nil {
		logFailure(h.logger, "admin login", err)
		writeError(w, err)
		return
	}

	setSessionCookie(w, auth.AdminCookie, token, auth.AdminTokenTTL, h.cookieSecure)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleLogout serves POST /api/admin/logout.
func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, auth.AdminCookie, h.cookieSecure)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleListSubmissions serves GET /api/admin/submissions?status=.
func (h *AdminHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.admin.ListSubmissions(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		logFailure(h.logger, "listing submissions", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// HandleExportCSV serves GET /api/admin/submissions/export.csv?status=.
func (h *AdminHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidSubmissionStatus(status) {
		writeError(w, apperror.ValidationFailed("status", "unknown status "+status))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="submissions.csv"`)
	if err := h.admin.ExportCSV(r.Context(), status, w); err != nil {
		// headers may already be out; log only
		h.logger.Error("exporting submissions", slog.String("error", err.Error()))
	}
}

// HandleUpdateSubmission serves PUT /api/admin/submissions/{id}.
func (h *AdminHandler) HandleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	var upd model.SubmissionUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.admin.UpdateSubmission(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		logFailure(h.logger, "updating submission", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// HandleApprove serves POST /api/admin/submissions/{id}/approve with
// optional overrides in the body.
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	var o service.ApproveOverrides
	if err := decodeJSON(r, &o); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.admin.Approve(r.Context(), r.PathValue("id"), o)
	if err != nil {
		logFailure(h.logger, "approving submission", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleReject serves POST /api/admin/submissions/{id}/reject.
func (h *AdminHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.admin.Reject(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		logFailure(h.logger, "rejecting submission", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type featuredRequest struct {
	Featured *bool `json:"featured"`
}

// HandleSetFeatured serves PUT /api/admin/products/{id}/featured.
func (h *AdminHandler) HandleSetFeatured(w http.ResponseWriter, r *http.Request) {
	var req featuredRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Featured == nil {
		writeError(w, apperror.ValidationFailed("featured", "featured is required"))
		return
	}

	if err := h.admin.SetFeatured(r.Context(), r.PathValue("id"), *req.Featured); err != nil {
		logFailure(h.logger, "setting featured", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"featured": *req.Featured})
}

// HandleDeleteProduct serves DELETE /api/admin/products/{id}.
func (h *AdminHandler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		logFailure(h.logger, "deleting product", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
