// Package achievements evaluates the fixed achievement catalog against a
// player's history statistics and level.
package achievements

import (
	"errors"

	"casino-hub/internal/history"
)

var (
	ErrUnknownAchievement = errors.New("unknown_achievement")
	ErrNotClaimable       = errors.New("achievement_not_claimable")
	ErrAlreadyClaimed     = errors.New("achievement_already_claimed")
)

type Metric string

const (
	MetricGamesPlayed    Metric = "games_played"
	MetricWins           Metric = "wins"
	MetricTotalWon       Metric = "total_won"
	MetricBiggestWin     Metric = "biggest_win"
	MetricPurchases      Metric = "purchases"
	MetricChipsPurchased Metric = "chips_purchased"
	MetricLevel          Metric = "level"
)

type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

type Requirement struct {
	Metric Metric `json:"metric"`
	Target int64  `json:"target"`
}

type Reward struct {
	Chips      int64 `json:"chips"`
	Experience int64 `json:"experience"`
}

type Achievement struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Requirement Requirement `json:"requirement"`
	Rarity      Rarity      `json:"rarity"`
	Reward      Reward      `json:"reward"`
}

var catalog = []Achievement{
	{ID: "first_game", Name: "First Hand", Requirement: Requirement{MetricGamesPlayed, 1}, Rarity: Common, Reward: Reward{100, 50}},
	{ID: "regular", Name: "Regular", Requirement: Requirement{MetricGamesPlayed, 100}, Rarity: Rare, Reward: Reward{1000, 500}},
	{ID: "first_win", Name: "Beginner's Luck", Requirement: Requirement{MetricWins, 1}, Rarity: Common, Reward: Reward{150, 75}},
	{ID: "winning_streak", Name: "On a Roll", Requirement: Requirement{MetricWins, 50}, Rarity: Rare, Reward: Reward{1500, 750}},
	{ID: "big_win", Name: "Big Win", Requirement: Requirement{MetricBiggestWin, 1000}, Rarity: Epic, Reward: Reward{2500, 1000}},
	{ID: "high_earner", Name: "High Earner", Requirement: Requirement{MetricTotalWon, 100000}, Rarity: Legendary, Reward: Reward{10000, 5000}},
	{ID: "supporter", Name: "Supporter", Requirement: Requirement{MetricPurchases, 1}, Rarity: Common, Reward: Reward{500, 100}},
	{ID: "whale", Name: "Whale", Requirement: Requirement{MetricChipsPurchased, 200000}, Rarity: Legendary, Reward: Reward{20000, 5000}},
	{ID: "level_5", Name: "Rising Star", Requirement: Requirement{MetricLevel, 5}, Rarity: Rare, Reward: Reward{2000, 0}},
	{ID: "level_10", Name: "Veteran", Requirement: Requirement{MetricLevel, 10}, Rarity: Epic, Reward: Reward{5000, 0}},
}

// Catalog returns a copy of every achievement in display order.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Progress is an achievement with the player's current standing.
type Progress struct {
	Achievement
	CurrentProgress int64 `json:"currentProgress"`
	Completed       bool  `json:"completed"`
	Claimed         bool  `json:"claimed"`
	Claimable       bool  `json:"claimable"`
}

func metricValue(m Metric, st history.Stats, level int) int64 {
	switch m {
	case MetricGamesPlayed:
		return int64(st.GamesPlayed)
	case MetricWins:
		return int64(st.Wins)
	case MetricTotalWon:
		return st.TotalWon
	case MetricBiggestWin:
		return st.BiggestWin
	case MetricPurchases:
		return int64(st.PurchaseCount)
	case MetricChipsPurchased:
		return st.ChipsPurchased
	case MetricLevel:
		return int64(level)
	default:
		return 0
	}
}

func evaluate(a Achievement, st history.Stats, level int, claimed map[string]bool) Progress {
	cur := metricValue(a.Requirement.Metric, st, level)
	done := cur >= a.Requirement.Target
	if cur > a.Requirement.Target {
		cur = a.Requirement.Target
	}
	return Progress{
		Achievement:     a,
		CurrentProgress: cur,
		Completed:       done,
		Claimed:         claimed[a.ID],
		Claimable:       done && !claimed[a.ID],
	}
}

// Evaluate returns progress for the whole catalog.
func Evaluate(st history.Stats, level int, claimed map[string]bool) []Progress {
	out := make([]Progress, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, evaluate(a, st, level, claimed))
	}
	return out
}

// CheckClaim returns the achievement if id may be claimed now.
func CheckClaim(id string, st history.Stats, level int, claimed map[string]bool) (Achievement, error) {
	a, ok := Lookup(id)
	if !ok {
		return Achievement{}, ErrUnknownAchievement
	}
	if claimed[id] {
		return Achievement{}, ErrAlreadyClaimed
	}
	if !evaluate(a, st, level, claimed).Completed {
		return Achievement{}, ErrNotClaimable
	}
	return a, nil
}
