package stackem

import (
	"errors"

	"casino-hub/internal/cards"
)

const GridSize = 5

var (
	ErrInvalidAnte    = errors.New("invalid_ante")
	ErrAnteLocked     = errors.New("ante_locked")
	ErrCellOutOfRange = errors.New("cell_out_of_range")
	ErrCellOccupied   = errors.New("cell_occupied")
	ErrDealOver       = errors.New("deal_over")
)

type LineKind string

const (
	LineRow    LineKind = "row"
	LineColumn LineKind = "column"
)

type Outcome string

const (
	OutcomeScored Outcome = "scored"
	OutcomeBust   Outcome = "bust"
	OutcomeFull   Outcome = "full"
)

type LineResult struct {
	Kind    LineKind `json:"kind"`
	Index   int      `json:"index"`
	Cards   int      `json:"cards"`
	Total   int      `json:"total"`
	Outcome Outcome  `json:"outcome"`
	Payout  int64    `json:"payout"`
}

type Placement struct {
	Card   cards.Card   `json:"card"`
	Row    int          `json:"row"`
	Col    int          `json:"col"`
	Cost   int64        `json:"cost"`
	Lines  []LineResult `json:"lines"`
	Payout int64        `json:"payout"`
	Over   bool         `json:"over"`
}

// ScoredCards is the number of cards across all lines that hit 21.
func (p Placement) ScoredCards() int {
	n := 0
	for _, l := range p.Lines {
		if l.Outcome == OutcomeScored {
			n += l.Cards
		}
	}
	return n
}

// Deal is one round of 21 Stack'em. It is not safe for concurrent use.
type Deal struct {
	ante    int64
	locked  bool
	grid    [GridSize][GridSize]*cards.Card
	deck    *cards.Deck
	current cards.Card
	over    bool

	tilesPlaced int
	chipsSpent  int64
	chipsWon    int64
}

func NewDeal(ante int64, deck *cards.Deck) (*Deal, error) {
	if ante <= 0 {
		return nil, ErrInvalidAnte
	}
	if deck == nil {
		deck = cards.NewShuffledDeck()
	}
	d := &Deal{ante: ante, deck: deck}
	d.draw()
	return d, nil
}

func (d *Deal) Ante() int64 { return d.ante }

func (d *Deal) Locked() bool { return d.locked }

func (d *Deal) Over() bool { return d.over }

// SetAnte changes the ante until the first tile is placed.
func (d *Deal) SetAnte(ante int64) error {
	if ante <= 0 {
		return ErrInvalidAnte
	}
	if d.locked {
		return ErrAnteLocked
	}
	d.ante = ante
	return nil
}

// CheckPlacement reports whether PlaceTile(row, col) would be accepted
// without touching the deal.
func (d *Deal) CheckPlacement(row, col int) error {
	if d.over {
		return ErrDealOver
	}
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return ErrCellOutOfRange
	}
	if d.grid[row][col] != nil {
		return ErrCellOccupied
	}
	return nil
}

// PlaceTile puts the current card on the grid and resolves the row and
// column it lands in. The caller has already paid the ante.
func (d *Deal) PlaceTile(row, col int) (Placement, error) {
	if err := d.CheckPlacement(row, col); err != nil {
		return Placement{}, err
	}
	d.locked = true
	card := d.current
	d.grid[row][col] = &card
	d.tilesPlaced++
	d.chipsSpent += d.ante

	p := Placement{Card: card, Row: row, Col: col, Cost: d.ante}
	var clear [][2]int
	for _, kind := range []LineKind{LineRow, LineColumn} {
		idx := row
		if kind == LineColumn {
			idx = col
		}
		res, cells, done := d.resolve(kind, idx)
		if !done {
			continue
		}
		p.Lines = append(p.Lines, res)
		p.Payout += res.Payout
		clear = append(clear, cells...)
	}
	for _, c := range clear {
		d.grid[c[0]][c[1]] = nil
	}
	d.chipsWon += p.Payout

	d.draw()
	p.Over = d.over
	return p, nil
}

// End finishes the deal early; no further tiles can be placed.
func (d *Deal) End() {
	d.over = true
}

func (d *Deal) resolve(kind LineKind, idx int) (LineResult, [][2]int, bool) {
	var line []cards.Card
	var cells [][2]int
	for i := 0; i < GridSize; i++ {
		r, c := idx, i
		if kind == LineColumn {
			r, c = i, idx
		}
		if d.grid[r][c] != nil {
			line = append(line, *d.grid[r][c])
			cells = append(cells, [2]int{r, c})
		}
	}
	res := LineResult{Kind: kind, Index: idx, Cards: len(line), Total: LineTotal(line)}
	switch {
	case res.Total == Target && len(line) >= 2:
		res.Outcome = OutcomeScored
		res.Payout = Payout(d.ante, len(line))
	case hardTotal(line) > Target:
		res.Outcome = OutcomeBust
	case len(line) == GridSize:
		res.Outcome = OutcomeFull
	default:
		return LineResult{}, nil, false
	}
	return res, cells, true
}

func (d *Deal) draw() {
	c, err := d.deck.Deal()
	if err != nil {
		d.over = true
		return
	}
	d.current = c
}

type Snapshot struct {
	Ante        int64           `json:"ante"`
	AnteLocked  bool            `json:"ante_locked"`
	Grid        [][]*cards.Card `json:"grid"`
	NextCard    *cards.Card     `json:"next_card,omitempty"`
	Remaining   int             `json:"cards_remaining"`
	Over        bool            `json:"over"`
	TilesPlaced int             `json:"tiles_placed"`
	ChipsSpent  int64           `json:"chips_spent"`
	ChipsWon    int64           `json:"chips_won"`
}

func (d *Deal) Snapshot() Snapshot {
	grid := make([][]*cards.Card, GridSize)
	for r := range grid {
		grid[r] = make([]*cards.Card, GridSize)
		for c := range grid[r] {
			if d.grid[r][c] != nil {
				cp := *d.grid[r][c]
				grid[r][c] = &cp
			}
		}
	}
	s := Snapshot{
		Ante:        d.ante,
		AnteLocked:  d.locked,
		Grid:        grid,
		Remaining:   d.deck.Remaining(),
		Over:        d.over,
		TilesPlaced: d.tilesPlaced,
		ChipsSpent:  d.chipsSpent,
		ChipsWon:    d.chipsWon,
	}
	if !d.over {
		next := d.current
		s.NextCard = &next
	}
	return s
}
