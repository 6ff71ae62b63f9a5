package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CardRepository stores cards in the cards table. It implements
// game.CardRepository.
type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func toModel(card game.Card) (models.Card, error) {
	flat := make([]int, 0, game.GridSize*game.GridSize)
	for _, row := range card.Grid {
		flat = append(flat, row[:]...)
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return models.Card{}, err
	}
	return models.Card{
		OwnerID:   card.OwnerID,
		CardID:    card.ID,
		Numbers:   datatypes.JSON(raw),
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}, nil
}

func fromModel(m models.Card) (game.Card, error) {
	var flat []int
	if err := json.Unmarshal(m.Numbers, &flat); err != nil {
		return game.Card{}, fmt.Errorf("decode card %s/%s: %w", m.OwnerID, m.CardID, err)
	}
	if len(flat) != game.GridSize*game.GridSize {
		return game.Card{}, fmt.Errorf("decode card %s/%s: %w: %d numbers",
			m.OwnerID, m.CardID, game.ErrInvalidCard, len(flat))
	}
	card := game.Card{ID: m.CardID, OwnerID: m.OwnerID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
	for i, n := range flat {
		card.Grid[i/game.GridSize][i%game.GridSize] = n
	}
	if err := game.ValidateGrid(card.Grid); err != nil {
		return game.Card{}, fmt.Errorf("stored card %s/%s: %w", m.OwnerID, m.CardID, err)
	}
	return card, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

func (r *CardRepository) Insert(ctx context.Context, card game.Card) error {
	return r.InsertMany(ctx, []game.Card{card})
}

// InsertMany stores all cards in one transaction; an existing (owner, id)
// pair aborts the whole batch.
func (r *CardRepository) InsertMany(ctx context.Context, cards []game.Card) error {
	if len(cards) == 0 {
		return nil
	}
	rows := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		m, err := toModel(c)
		if err != nil {
			return err
		}
		rows = append(rows, m)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			var count int64
			if err := tx.Model(&models.Card{}).
				Where("owner_id = ? AND card_id = ?", row.OwnerID, row.CardID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %s/%s", game.ErrDuplicateCard, row.OwnerID, row.CardID)
			}
		}
		if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %v", game.ErrDuplicateCard, err)
			}
			return err
		}
		return nil
	})
}

func (r *CardRepository) Get(ctx context.Context, ownerID, cardID string) (game.Card, error) {
	var m models.Card
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND card_id = ?", ownerID, cardID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Card{}, fmt.Errorf("%w: %s/%s", game.ErrCardNotFound, ownerID, cardID)
	}
	if err != nil {
		return game.Card{}, err
	}
	return fromModel(m)
}

func (r *CardRepository) ListByOwner(ctx context.Context, ownerID string) ([]game.Card, error) {
	var rows []models.Card
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("card_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	cards := make([]game.Card, 0, len(rows))
	for _, m := range rows {
		c, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func (r *CardRepository) Replace(ctx context.Context, card game.Card) error {
	m, err := toModel(card)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Card{}).
		Where("owner_id = ? AND card_id = ?", card.OwnerID, card.ID).
		Updates(map[string]any{"numbers": m.Numbers, "updated_at": card.UpdatedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", game.ErrCardNotFound, card.OwnerID, card.ID)
	}
	return nil
}

func (r *CardRepository) Delete(ctx context.Context, ownerID, cardID string) error {
	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND card_id = ?", ownerID, cardID).
		Delete(&models.Card{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", game.ErrCardNotFound, ownerID, cardID)
	}
	return nil
}
