package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spilabs/spiexam/internal/exam"
	"github.com/spilabs/spiexam/internal/examdata"
	appI18n "github.com/spilabs/spiexam/internal/i18n"
	"github.com/spilabs/spiexam/internal/model"
	"github.com/spilabs/spiexam/internal/store"
)

const sessionCookieName = "exam_session"

// Translator is the opaque external translation collaborator.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	data       *examdata.Provider
	sessions   *exam.Manager
	store      *store.Store
	translator Translator // nil when translation is not configured
	config     model.AppConfig
}

// New creates a new Handler.
func New(data *examdata.Provider, sessions *exam.Manager, s *store.Store, tr Translator, cfg model.AppConfig) *Handler {
	return &Handler{data: data, sessions: sessions, store: s, translator: tr, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/api/status", h.handleHealth)

	r.Get("/exam/select-mode", h.handleSelectMode)
	r.Get("/exam/select-category/{mode}", h.handleSelectCategory)
	r.Post("/exam/start", h.handleStart)
	r.Get("/exam/question", h.handleQuestion)
	r.Post("/exam/answer", h.handleAnswer)
	r.Get("/exam/result", h.handleResult)

	r.Post("/api/translate", h.handleTranslate)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(h.requireAdmin)
		admin.Get("/status", h.handleAdminStatus)
		admin.Post("/reload", h.handleReload)
		admin.Get("/results", h.handleResults)
	})
}

// catalog returns the current question-set catalog. A nil catalog means
// data never loaded; exam routes report that, liveness does not.
func (h *Handler) catalog() (*examdata.Catalog, error) {
	cat := h.data.Catalog()
	if cat == nil {
		return nil, model.ErrNoDataDir
	}
	return cat, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSelectMode(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"modes":         cat.Modes(),
		"question_sets": cat.Len(),
	})
}

func (h *Handler) handleSelectCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	mode := chi.URLParam(r, "mode")
	sets := cat.Sets(mode, r.URL.Query().Get("category"))
	if len(sets) == 0 {
		h.respondError(w, r, model.ErrSetNotFound)
		return
	}

	total := 0
	for _, s := range sets {
		total += s.NumQuestions
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"mode":          mode,
		"categories":    cat.Categories(mode),
		"question_sets": sets,
		"message":       appI18n.Tp(r.Context(), "QuestionsAvailable", total),
	})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionSetID string `json:"question_set_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	cat, err := h.catalog()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	qs, err := cat.Get(req.QuestionSetID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess, err := h.sessions.Start(qs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.setSessionCookie(w, sess.Token)
	respondJSON(w, http.StatusCreated, h.questionState(sess, qs))
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	sess, qs, err := h.currentSession(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.questionState(sess, qs))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		// Option is the selected option index; null or absent means the
		// examinee skipped or ran out of time.
		Option *int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	choice := model.NoAnswer
	if req.Option != nil {
		choice = *req.Option
	}

	sess, qs, err := h.currentSession(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess, err = h.sessions.Answer(sess.Token, qs, choice)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.questionState(sess, qs))
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	sess, qs, err := h.currentSession(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.sessions.Finish(sess.Token, qs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if id, err := h.store.SaveResult(*result); err != nil {
		slog.Error("failed to persist exam result", "slug", result.Slug, "error", err)
	} else {
		result.ID = id
	}

	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"message": appI18n.Td(r.Context(), "ResultSummary", map[string]any{
			"Score": result.Score,
			"Total": result.Total,
		}),
	})
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if h.translator == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "translation not configured",
			"message": appI18n.T(r.Context(), "TranslationUnavailable"),
		})
		return
	}

	var req struct {
		Text       string `json:"text"`
		TargetLang string `json:"target_lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Text == "" || req.TargetLang == "" {
		http.Error(w, "text and target_lang required", http.StatusBadRequest)
		return
	}

	translated, err := h.translator.Translate(r.Context(), req.Text, req.TargetLang)
	if err != nil {
		slog.Error("translation failed", "target_lang", req.TargetLang, "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "translation failed",
			"message": appI18n.T(r.Context(), "TranslationFailed"),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"translation": translated})
}

// currentSession resolves the caller's session and its question set from
// the session cookie.
func (h *Handler) currentSession(r *http.Request) (*model.Session, *model.QuestionSet, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil, model.ErrNoSession
	}

	sess, err := h.sessions.Get(cookie.Value)
	if err != nil {
		return nil, nil, err
	}

	cat, err := h.catalog()
	if err != nil {
		return nil, nil, err
	}
	qs, err := cat.Get(sess.Slug)
	if err != nil {
		// The catalog was reloaded underneath an active session.
		return nil, nil, err
	}
	return sess, qs, nil
}

// questionState is the flow response: the current question while the exam
// runs, or a pointer to the result once it is done. Answer keys are never
// included.
func (h *Handler) questionState(sess *model.Session, qs *model.QuestionSet) map[string]any {
	state := map[string]any{
		"question_set_id": sess.Slug,
		"title":           qs.Title,
		"status":          sess.Status,
		"current_index":   sess.CurrentIndex,
		"total":           len(qs.Questions),
	}
	// The index can run past the end when a reload shrank the set under
	// an active session; there is no question left to show either way.
	if sess.Status == model.StatusCompleted || sess.CurrentIndex >= len(qs.Questions) {
		state["next"] = h.path("/exam/result")
		return state
	}

	q := qs.Questions[sess.CurrentIndex]
	state["time_per_question_sec"] = qs.TimePerQuestionSec
	state["question"] = map[string]any{
		"prompt":  q.Prompt,
		"options": q.Options,
	}
	return state
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	ttl := h.config.SessionTTL
	if ttl <= 0 {
		ttl = exam.DefaultSessionTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps core error sentinels to HTTP statuses with a
// localized user-facing message.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msgID := "InternalError"

	switch {
	case errors.Is(err, model.ErrNoDataDir):
		status = http.StatusServiceUnavailable
		msgID = "DataUnavailable"
	case errors.Is(err, model.ErrSetNotFound):
		status = http.StatusNotFound
		msgID = "SetNotFound"
	case errors.Is(err, model.ErrNoSession):
		status = http.StatusNotFound
		msgID = "NoSession"
	case errors.Is(err, model.ErrInvalidChoice):
		status = http.StatusBadRequest
		msgID = "InvalidChoice"
	case errors.Is(err, model.ErrExamCompleted):
		status = http.StatusConflict
		msgID = "ExamCompleted"
	case errors.Is(err, model.ErrExamInProgress):
		status = http.StatusConflict
		msgID = "ExamInProgress"
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	respondJSON(w, status, map[string]string{
		"error":   err.Error(),
		"message": appI18n.T(r.Context(), msgID),
	})
}
