package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CardRepository persists cards. Implementations enforce uniqueness of
// (OwnerID, ID) and return ErrCardNotFound / ErrDuplicateCard.
type CardRepository interface {
	Insert(ctx context.Context, card Card) error
	InsertMany(ctx context.Context, cards []Card) error
	Get(ctx context.Context, ownerID, cardID string) (Card, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Card, error)
	Replace(ctx context.Context, card Card) error
	Delete(ctx context.Context, ownerID, cardID string) error
}

// CardLookup is the read side sessions need to resolve claims.
type CardLookup interface {
	Get(ctx context.Context, ownerID, cardID string) (Card, error)
}

// CardInput is one card of a bulk creation request.
type CardInput struct {
	ID   string `json:"id"`
	Grid Grid   `json:"grid"`
}

// CardStore validates cards before they reach the repository. Every write,
// administrative corrections included, goes through ValidateGrid.
type CardStore struct {
	repo CardRepository
	now  func() time.Time
}

func NewCardStore(repo CardRepository) *CardStore {
	return &CardStore{repo: repo, now: time.Now}
}

func (s *CardStore) build(ownerID, cardID string, grid Grid) (Card, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Card{}, fmt.Errorf("%w: owner is required", ErrInvalidCard)
	}
	if err := ValidateGrid(grid); err != nil {
		return Card{}, err
	}
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		cardID = uuid.NewString()
	}
	now := s.now().UTC()
	return Card{ID: cardID, OwnerID: ownerID, Grid: grid, CreatedAt: now, UpdatedAt: now}, nil
}

// Create validates and stores a card. An empty cardID gets a generated id.
func (s *CardStore) Create(ctx context.Context, ownerID, cardID string, grid Grid) (Card, error) {
	card, err := s.build(ownerID, cardID, grid)
	if err != nil {
		return Card{}, err
	}
	if err := s.repo.Insert(ctx, card); err != nil {
		return Card{}, err
	}
	return card, nil
}

// CreateBulk validates every input before storing any of them. Ids must be
// unique within the batch.
func (s *CardStore) CreateBulk(ctx context.Context, ownerID string, inputs []CardInput) ([]Card, error) {
	cards := make([]Card, 0, len(inputs))
	ids := make(map[string]int, len(inputs))
	for i, in := range inputs {
		card, err := s.build(ownerID, in.ID, in.Grid)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		if prev, dup := ids[card.ID]; dup {
			return nil, fmt.Errorf("card %d: %w: id %q repeats card %d", i, ErrDuplicateCard, card.ID, prev)
		}
		ids[card.ID] = i
		cards = append(cards, card)
	}
	if err := s.repo.InsertMany(ctx, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *CardStore) Get(ctx context.Context, ownerID, cardID string) (Card, error) {
	return s.repo.Get(ctx, ownerID, cardID)
}

func (s *CardStore) ListByOwner(ctx context.Context, ownerID string) ([]Card, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Correct replaces the grid of an existing card after validating it.
func (s *CardStore) Correct(ctx context.Context, ownerID, cardID string, grid Grid) (Card, error) {
	if err := ValidateGrid(grid); err != nil {
		return Card{}, err
	}
	card, err := s.repo.Get(ctx, ownerID, cardID)
	if err != nil {
		return Card{}, err
	}
	card.Grid = grid
	card.UpdatedAt = s.now().UTC()
	if err := s.repo.Replace(ctx, card); err != nil {
		return Card{}, err
	}
	return card, nil
}

func (s *CardStore) Delete(ctx context.Context, ownerID, cardID string) error {
	return s.repo.Delete(ctx, ownerID, cardID)
}

type cardKey struct{ owner, id string }

// MemoryCards is an in-process CardRepository.
type MemoryCards struct {
	mu    sync.RWMutex
	cards map[cardKey]Card
}

func NewMemoryCards() *MemoryCards {
	return &MemoryCards{cards: make(map[cardKey]Card)}
}

func (m *MemoryCards) Insert(_ context.Context, card Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cardKey{card.OwnerID, card.ID}
	if _, ok := m.cards[k]; ok {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateCard, card.OwnerID, card.ID)
	}
	m.cards[k] = card
	return nil
}

func (m *MemoryCards) InsertMany(_ context.Context, cards []Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, card := range cards {
		if _, ok := m.cards[cardKey{card.OwnerID, card.ID}]; ok {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateCard, card.OwnerID, card.ID)
		}
	}
	for _, card := range cards {
		m.cards[cardKey{card.OwnerID, card.ID}] = card
	}
	return nil
}

func (m *MemoryCards) Get(_ context.Context, ownerID, cardID string) (Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[cardKey{ownerID, cardID}]
	if !ok {
		return Card{}, fmt.Errorf("%w: %s/%s", ErrCardNotFound, ownerID, cardID)
	}
	return card, nil
}

func (m *MemoryCards) ListByOwner(_ context.Context, ownerID string) ([]Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Card
	for k, card := range m.cards {
		if k.owner == ownerID {
			out = append(out, card)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryCards) Replace(_ context.Context, card Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cardKey{card.OwnerID, card.ID}
	if _, ok := m.cards[k]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrCardNotFound, card.OwnerID, card.ID)
	}
	m.cards[k] = card
	return nil
}

func (m *MemoryCards) Delete(_ context.Context, ownerID, cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := cardKey{ownerID, cardID}
	if _, ok := m.cards[k]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrCardNotFound, ownerID, cardID)
	}
	delete(m.cards, k)
	return nil
}
