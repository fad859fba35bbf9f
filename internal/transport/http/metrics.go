package httptransport

import "expvar"

var (
	metricPaymentIntentTotal  = expvar.NewInt("payment_intent_total")
	metricPaymentIntentErrors = expvar.NewInt("payment_intent_errors_total")

	metricWebhookEventsTotal     = expvar.NewInt("webhook_events_total")
	metricWebhookDuplicatesTotal = expvar.NewInt("webhook_duplicates_total")
	metricWebhookErrorsTotal     = expvar.NewInt("webhook_errors_total")
	metricChipsPurchasedTotal    = expvar.NewInt("chips_purchased_total")

	metricTilePlacementsTotal = expvar.NewInt("stackem_tile_placements_total")
	metricRaceBetsTotal       = expvar.NewInt("racing_bets_total")
	metricRacesSettledTotal   = expvar.NewInt("racing_races_settled_total")
	metricInsufficientChips   = expvar.NewInt("insufficient_chips_total")

	metricAchievementClaimsTotal = expvar.NewInt("achievement_claims_total")
)
