package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/utils/logger"
)

// BingoCard is one entry of a printed card file.
type BingoCard struct {
	B      []int `json:"B"`
	I      []int `json:"I"`
	N      []int `json:"N"`
	G      []int `json:"G"`
	O      []int `json:"O"`
	CardID int   `json:"card_id"`
}

// ParseCards decodes a card file into bulk creation inputs. N3 may be given
// as 0 or omitted, in which case N holds four numbers.
func ParseCards(data []byte) ([]game.CardInput, error) {
	var raw []BingoCard
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	inputs := make([]game.CardInput, 0, len(raw))
	for _, c := range raw {
		n := c.N
		if len(n) == game.GridSize-1 {
			n = []int{n[0], n[1], game.FreeValue, n[2], n[3]}
		}
		grid, err := game.GridFromColumns(c.B, c.I, n, c.G, c.O)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", c.CardID, err)
		}
		inputs = append(inputs, game.CardInput{ID: strconv.Itoa(c.CardID), Grid: grid})
	}
	return inputs, nil
}

// ImportCards loads a card file and stores every card under ownerID. The
// import is all or nothing.
func ImportCards(ctx context.Context, store *game.CardStore, ownerID, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	inputs, err := ParseCards(data)
	if err != nil {
		return 0, err
	}
	cards, err := store.CreateBulk(ctx, ownerID, inputs)
	if err != nil {
		return 0, err
	}
	logger.Infof("[Init] Loaded %d bingo cards for %s", len(cards), ownerID)
	return len(cards), nil
}
