package cards

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var ErrDeckEmpty = errors.New("deck_empty")

type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	default:
		return false
	}
}

type Rank int

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

type Card struct {
	Rank Rank
	Suit Suit
}

// Points is the hard value of the card: aces count 1, faces count 10.
func (c Card) Points() int {
	if c.Rank >= Ten {
		return 10
	}
	return int(c.Rank)
}

func (c Card) String() string {
	r := map[Rank]string{
		Ace: "A", Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7",
		Eight: "8", Nine: "9", Ten: "10", Jack: "J", Queen: "Q", King: "K",
	}[c.Rank]
	s := map[Suit]string{Hearts: "h", Diamonds: "d", Clubs: "c", Spades: "s"}[c.Suit]
	return r + s
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rank  Rank   `json:"rank"`
		Suit  Suit   `json:"suit"`
		Label string `json:"label"`
	}{c.Rank, c.Suit, c.String()})
}

type Deck struct {
	cards []Card
}

// NewDeck returns an ordered 52-card deck.
func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			cards = append(cards, Card{Rank: r, Suit: s})
		}
	}
	return &Deck{cards: cards}
}

// NewDeckFrom deals the given cards in order.
func NewDeckFrom(cards []Card) *Deck {
	out := make([]Card, len(cards))
	copy(out, cards)
	return &Deck{cards: out}
}

func NewShuffledDeck() *Deck {
	d := NewDeck()
	d.Shuffle()
	return d
}

// Shuffle runs Fisher-Yates over crypto/rand.
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := secureIntn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckEmpty
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

func (d *Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

var randReader io.Reader = rand.Reader

// secureIntn panics when the system randomness source fails. A deck that
// could not be shuffled must never be dealt.
func secureIntn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(randReader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("cards: read random source: %v", err))
	}
	return int(v.Int64())
}
