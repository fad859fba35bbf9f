package httptransport

import (
	"errors"
	"net/http"

	"casino-hub/internal/achievements"
	"casino-hub/internal/app/play"
	"casino-hub/internal/app/profile"
	"casino-hub/internal/racing"
	"casino-hub/internal/stackem"
	"casino-hub/internal/store"

	"github.com/rs/zerolog/log"
)

// domainErrors maps sentinel errors to a status; the sentinel text is the
// error code in the response body.
var domainErrors = []struct {
	err    error
	status int
}{
	{store.ErrInsufficientChips, http.StatusPaymentRequired},
	{store.ErrVersionConflict, http.StatusConflict},
	{store.ErrInvalidAmount, http.StatusBadRequest},
	{play.ErrSessionNotFound, http.StatusNotFound},
	{play.ErrInvalidRequest, http.StatusBadRequest},
	{profile.ErrInvalidRequest, http.StatusBadRequest},
	{stackem.ErrInvalidAnte, http.StatusBadRequest},
	{stackem.ErrCellOutOfRange, http.StatusBadRequest},
	{stackem.ErrAnteLocked, http.StatusConflict},
	{stackem.ErrCellOccupied, http.StatusConflict},
	{stackem.ErrDealOver, http.StatusConflict},
	{racing.ErrInvalidSuit, http.StatusBadRequest},
	{racing.ErrInvalidAmount, http.StatusBadRequest},
	{racing.ErrBettingClosed, http.StatusConflict},
	{racing.ErrRaceNotRunning, http.StatusConflict},
	{racing.ErrRaceNotFinished, http.StatusConflict},
	{racing.ErrAlreadySettled, http.StatusConflict},
	{racing.ErrSuitFinished, http.StatusConflict},
	{achievements.ErrUnknownAchievement, http.StatusNotFound},
	{achievements.ErrNotClaimable, http.StatusConflict},
	{achievements.ErrAlreadyClaimed, http.StatusConflict},
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		WriteHTTPError(w, http.StatusNotFound, "wallet_not_found")
		return
	}
	if errors.Is(err, store.ErrInsufficientChips) {
		metricInsufficientChips.Add(1)
	}
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			WriteHTTPError(w, de.status, de.err.Error())
			return
		}
	}
	log.Error().Err(err).Str("path", r.URL.Path).Str("user_id", userID(r)).Msg("request failed")
	WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
}
