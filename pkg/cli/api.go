package cli

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mchmarny/trustchain/pkg/identity"
	"github.com/mchmarny/trustchain/pkg/model"
	"github.com/mchmarny/trustchain/pkg/reputation"
)

const maxRequestBytes = 1 << 16

// ReputationRequest is the body of a score update.
type ReputationRequest struct {
	Handle  string `json:"handle"`
	Address string `json:"address"`
}

// CachedReputation is a cached score lookup.
type CachedReputation struct {
	Identity identity.Identity `json:"identity"`
	Score    float64           `json:"score"`
	Found    bool              `json:"found"`
}

// PredictRequest is the body of a model prediction.
type PredictRequest struct {
	Features []float64 `json:"features"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	return d.Decode(v)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func updateReputationAPIHandler(svc *reputation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReputationRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Handle = strings.TrimSpace(req.Handle)
		req.Address = strings.TrimSpace(req.Address)
		if req.Handle == "" || req.Address == "" {
			writeError(w, http.StatusBadRequest, "handle and address are required")
			return
		}

		writeJSON(w, http.StatusOK, svc.UpdateReputationScore(r.Context(), req.Handle, req.Address))
	}
}

func getReputationAPIHandler(svc *reputation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := identity.Parse(r.PathValue("identity"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid identity")
			return
		}

		v, found := svc.LookupReputation(id)
		writeJSON(w, http.StatusOK, &CachedReputation{
			Identity: id,
			Score:    v,
			Found:    found,
		})
	}
}

func githubSignalAPIHandler(svc *reputation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.FetchGitHubSignal(r.Context(), r.PathValue("handle")))
	}
}

func chainSignalAPIHandler(svc *reputation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.FetchChainSignal(r.Context(), r.PathValue("address")))
	}
}

func predictAPIHandler(m *model.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			writeError(w, http.StatusServiceUnavailable, "model not loaded")
			return
		}

		var req PredictRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, err := m.Predict(req.Features)
		if err != nil {
			if errors.Is(err, model.ErrFeatureMismatch) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			slog.Error("failed to predict", "error", err)
			writeError(w, http.StatusInternalServerError, "error predicting")
			return
		}

		writeJSON(w, http.StatusOK, &Prediction{Features: req.Features, Prediction: p})
	}
}
