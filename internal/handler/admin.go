package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/spilabs/spiexam/internal/i18n"
	"github.com/spilabs/spiexam/internal/model"
)

// requireAdmin guards the admin routes with HTTP basic auth checked
// against the stored bcrypt hash. With no admin account seeded, every
// admin request is rejected.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			h.unauthorized(w, r)
			return
		}

		user, err := h.store.GetUserByUsername(username)
		if err != nil {
			slog.Error("failed to get user", "username", username, "error", err)
			h.unauthorized(w, r)
			return
		}
		if user == nil {
			h.unauthorized(w, r)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			h.unauthorized(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="spiexam admin"`)
	respondJSON(w, http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": appI18n.T(r.Context(), "Unauthorized"),
	})
}

// handleAdminStatus reports the operational state: the recorded data
// directory, catalog size, active sessions, and stored result count.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	dataDir, err := h.store.GetMetadata("data_dir")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	count, err := h.store.ResultCount()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	status := map[string]any{
		"data_dir":        dataDir,
		"active_sessions": h.sessions.Len(),
		"stored_results":  count,
	}
	if cat := h.data.Catalog(); cat != nil {
		status["question_sets"] = cat.Len()
		status["load_errors"] = len(cat.LoadErrors)
	}
	respondJSON(w, http.StatusOK, status)
}

// handleReload re-resolves the data directory, reloads all question sets,
// and swaps the catalog atomically. Active sessions keep their snapshot
// semantics: readers never see a half-built index.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	cat, err := h.data.Reload()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.SetMetadata("data_dir", cat.Dir); err != nil {
		slog.Error("failed to record data dir", "error", err)
	}

	loadErrors := make([]string, 0, len(cat.LoadErrors))
	for _, le := range cat.LoadErrors {
		loadErrors = append(loadErrors, le.Error())
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"dir":           cat.Dir,
		"question_sets": cat.Len(),
		"load_errors":   loadErrors,
	})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.store.ListResults(limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}
