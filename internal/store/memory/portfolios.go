package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

func (s *Store) portfolioLocked(id, userID string) (*models.Portfolio, error) {
	p, ok := s.portfolios[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) withStocksLocked(p *models.Portfolio) models.Portfolio {
	out := *p
	out.Stocks = append([]models.Stock{}, s.stocks[p.ID]...)
	return out
}

func (s *Store) ListPortfolios(_ context.Context, userID string) ([]models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Portfolio, 0)
	for _, p := range s.portfolios {
		if p.UserID == userID {
			list = append(list, s.withStocksLocked(p))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (s *Store) GetPortfolio(_ context.Context, id, userID string) (*models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.portfolioLocked(id, userID)
	if err != nil {
		return nil, err
	}
	out := s.withStocksLocked(p)
	return &out, nil
}

func (s *Store) CreatePortfolio(_ context.Context, p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now

	stored := *p
	stored.Stocks = nil
	s.portfolios[p.ID] = &stored

	for i := range p.Stocks {
		p.Stocks[i].PortfolioID = p.ID
		if err := s.addStockLocked(&p.Stocks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdatePortfolio(_ context.Context, p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.portfolioLocked(p.ID, p.UserID)
	if err != nil {
		return err
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.RiskTolerance = p.RiskTolerance
	existing.Cash = p.Cash
	existing.UpdatedAt = s.now()

	*p = s.withStocksLocked(existing)
	return nil
}

func (s *Store) DeletePortfolio(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.portfolioLocked(id, userID); err != nil {
		return err
	}
	delete(s.portfolios, id)
	delete(s.stocks, id)
	return nil
}

func (s *Store) ListStocks(_ context.Context, portfolioID, userID string) ([]models.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.portfolioLocked(portfolioID, userID); err != nil {
		return nil, err
	}
	return append([]models.Stock{}, s.stocks[portfolioID]...), nil
}

func (s *Store) addStockLocked(st *models.Stock) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := s.now()
	st.CreatedAt, st.UpdatedAt = now, now
	s.stocks[st.PortfolioID] = append(s.stocks[st.PortfolioID], *st)
	return nil
}

func (s *Store) AddStock(_ context.Context, userID string, st *models.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.portfolioLocked(st.PortfolioID, userID)
	if err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	return s.addStockLocked(st)
}

func (s *Store) UpdateStock(_ context.Context, userID string, st *models.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.portfolioLocked(st.PortfolioID, userID); err != nil {
		return err
	}
	list := s.stocks[st.PortfolioID]
	for i := range list {
		if list[i].ID == st.ID {
			st.CreatedAt = list[i].CreatedAt
			st.UpdatedAt = s.now()
			list[i] = *st
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteStock(_ context.Context, portfolioID, stockID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.portfolioLocked(portfolioID, userID); err != nil {
		return err
	}
	list := s.stocks[portfolioID]
	for i := range list {
		if list[i].ID == stockID {
			s.stocks[portfolioID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
