package httptransport

import (
	"encoding/json"
	"net/http"

	"casino-hub/internal/app/play"
	"casino-hub/internal/cards"

	"github.com/go-chi/chi/v5"
)

type GameHandlers struct {
	coord *play.Coordinator
}

func NewGameHandlers(coord *play.Coordinator) *GameHandlers {
	return &GameHandlers{coord: coord}
}

func (h *GameHandlers) StartDeal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Ante int64 `json:"ante"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		resp, err := h.coord.StartDeal(r.Context(), userID(r), body.Ante)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *GameHandlers) Deal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.coord.Deal(userID(r), chi.URLParam(r, "deal_id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) SetAnte() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Ante int64 `json:"ante"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		resp, err := h.coord.SetAnte(userID(r), chi.URLParam(r, "deal_id"), body.Ante)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) PlaceTile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Row *int `json:"row"`
			Col *int `json:"col"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.Row == nil || body.Col == nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.coord.PlaceTile(r.Context(), userID(r), chi.URLParam(r, "deal_id"), *body.Row, *body.Col)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		metricTilePlacementsTotal.Add(1)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) EndDeal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.coord.EndDeal(r.Context(), userID(r), chi.URLParam(r, "deal_id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) CreateRace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.coord.CreateRace(userID(r))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *GameHandlers) Race() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.coord.Race(userID(r), chi.URLParam(r, "race_id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) PlaceBet(live bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Suit   cards.Suit `json:"suit"`
			Amount int64      `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		place := h.coord.PlaceBet
		if live {
			place = h.coord.PlaceLiveBet
		}
		resp, err := place(r.Context(), userID(r), chi.URLParam(r, "race_id"), body.Suit, body.Amount)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		metricRaceBetsTotal.Add(1)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) StartRace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.coord.StartRace(userID(r), chi.URLParam(r, "race_id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *GameHandlers) Advance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.coord.Advance(r.Context(), userID(r), chi.URLParam(r, "race_id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if resp.Step.Finished {
			metricRacesSettledTotal.Add(1)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
