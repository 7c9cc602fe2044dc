package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imgaltgen/imgaltgen/internal/auth"
	"github.com/imgaltgen/imgaltgen/internal/generate"
	"github.com/imgaltgen/imgaltgen/internal/models"
)

// HistoryLimit caps how many records the history endpoint returns.
const HistoryLimit = 50

// GenerateService runs the generation workflow.
type GenerateService interface {
	Generate(ctx context.Context, userID, imageURL string) (*generate.Result, error)
}

// CreditReader reads a user's current quota state.
type CreditReader interface {
	Peek(ctx context.Context, userID string) (*models.CreditStatus, error)
}

// HistoryStore lists past generations for one user.
type HistoryStore interface {
	ListGenerationsByUser(ctx context.Context, userID string, limit int) ([]models.Generation, error)
}

type Handler struct {
	svc     GenerateService
	credits CreditReader
	history HistoryStore
}

func NewHandler(svc GenerateService, credits CreditReader, history HistoryStore) *Handler {
	return &Handler{svc: svc, credits: credits, history: history}
}

func (h *Handler) RegisterRoutes(router *mux.Router, mw *auth.Middleware) {
	router.Handle("/generate", mw.Authenticate(http.HandlerFunc(h.Generate))).Methods("POST")
	router.Handle("/credits", mw.Authenticate(http.HandlerFunc(h.Credits))).Methods("GET")
	router.Handle("/history", mw.Authenticate(http.HandlerFunc(h.History))).Methods("GET")
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Generate(r.Context(), claims.UserID, req.ImageURL)
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	resp := map[string]interface{}{
		"altText":          result.AltText,
		"creditsRemaining": result.CreditsRemaining,
	}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, err error) {
	var quotaErr *generate.QuotaError
	if errors.As(err, &quotaErr) {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error":     "Daily credit limit reached",
			"remaining": quotaErr.Remaining,
			"reset":     quotaErr.Reset,
			"resetDate": quotaErr.ResetDate,
		})
		return
	}

	if errors.Is(err, generate.ErrMissingImageURL) || errors.Is(err, generate.ErrInvalidImageType) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("generate request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "Failed to generate alt text")
}

func (h *Handler) Credits(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status, err := h.credits.Peek(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("credit lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch credits")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	generations, err := h.history.ListGenerationsByUser(r.Context(), claims.UserID, HistoryLimit)
	if err != nil {
		log.Printf("history lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	writeJSON(w, http.StatusOK, generations)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
