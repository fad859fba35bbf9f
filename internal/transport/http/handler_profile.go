package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"casino-hub/internal/app/profile"
	"casino-hub/internal/history"

	"github.com/go-chi/chi/v5"
)

const maxImportBody = 8 << 20

type ProfileHandlers struct {
	svc *profile.Service
	now func() time.Time
}

func NewProfileHandlers(svc *profile.Service) *ProfileHandlers {
	return &ProfileHandlers{svc: svc, now: time.Now}
}

func (h *ProfileHandlers) Wallet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Wallet(r.Context(), userID(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Chips accepts either {"delta": n} for an atomic adjustment or
// {"chips": n, "version": v} for a versioned absolute write.
func (h *ProfileHandlers) Chips() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Delta   *int64 `json:"delta"`
			Chips   *int64 `json:"chips"`
			Version int64  `json:"version"`
			Reason  string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		var (
			resp *profile.WalletView
			err  error
		)
		switch {
		case body.Delta != nil && body.Chips == nil:
			resp, err = h.svc.AdjustChips(r.Context(), userID(r), *body.Delta, body.Reason)
		case body.Chips != nil && body.Delta == nil:
			resp, err = h.svc.SetChips(r.Context(), userID(r), *body.Chips, body.Version)
		default:
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ProfileHandlers) Ledger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)
		resp, err := h.svc.Ledger(r.Context(), userID(r), r.URL.Query().Get("type"), limit, offset)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ProfileHandlers) Achievements() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Achievements(r.Context(), userID(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ProfileHandlers) ClaimAchievement() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.ClaimAchievement(r.Context(), userID(r), chi.URLParam(r, "achievement_id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		metricAchievementClaimsTotal.Add(1)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ProfileHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Stats(r.Context(), userID(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *ProfileHandlers) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.svc.Export(r.Context(), userID(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		name := fmt.Sprintf("casino-hub-export-%s.json", h.now().UTC().Format("20060102T150405Z"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		writeJSON(w, http.StatusOK, doc)
	}
}

func (h *ProfileHandlers) Import() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc history.Export
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody)).Decode(&doc); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := h.svc.Import(r.Context(), userID(r), doc); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *ProfileHandlers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Clear(r.Context(), userID(r)); err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
