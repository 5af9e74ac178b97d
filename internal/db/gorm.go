package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

// Relational keeps portfolios, holdings, and news bookmarks through GORM.
type Relational struct {
	DB *gorm.DB
}

var (
	_ store.PortfolioStore = (*Relational)(nil)
	_ store.BookmarkStore  = (*Relational)(nil)
)

// NewGORM opens a gorm.DB connection backed by the configured Postgres instance.
func NewGORM(cfg utils.PostgresConfig) (*Relational, error) {
	dsn := cfg.BuildDSN()
	if dsn == "" {
		return nil, fmt.Errorf("gorm: postgres connection url is empty")
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: open connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm: get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(15)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("gorm: ping postgres: %w", err)
	}

	return &Relational{DB: gormDB}, nil
}

func (r *Relational) AutoMigrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(&models.Portfolio{}, &models.Stock{}, &models.Bookmark{}); err != nil {
		return fmt.Errorf("gorm: auto migrate: %w", err)
	}
	return nil
}

func (r *Relational) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (r *Relational) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	var list []models.Portfolio
	err := r.DB.WithContext(ctx).Preload("Stocks").Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list portfolios: %w", err)
	}
	return list, nil
}

func (r *Relational) GetPortfolio(ctx context.Context, id, userID string) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.DB.WithContext(ctx).Preload("Stocks", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("id = ? AND user_id = ?", id, userID).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *Relational) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for i := range p.Stocks {
		if p.Stocks[i].ID == "" {
			p.Stocks[i].ID = uuid.NewString()
		}
		p.Stocks[i].PortfolioID = p.ID
	}
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("gorm: create portfolio: %w", err)
	}
	return nil
}

func (r *Relational) UpdatePortfolio(ctx context.Context, p *models.Portfolio) error {
	res := r.DB.WithContext(ctx).Model(&models.Portfolio{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Updates(map[string]any{
			"name":           p.Name,
			"description":    p.Description,
			"risk_tolerance": p.RiskTolerance,
			"cash":           p.Cash,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("gorm: update portfolio: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	updated, err := r.GetPortfolio(ctx, p.ID, p.UserID)
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}

func (r *Relational) DeletePortfolio(ctx context.Context, id, userID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Portfolio{})
		if res.Error != nil {
			return fmt.Errorf("gorm: delete portfolio: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Stock{}).Error; err != nil {
			return fmt.Errorf("gorm: delete holdings: %w", err)
		}
		return nil
	})
}

func (r *Relational) owns(ctx context.Context, portfolioID, userID string) error {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Portfolio{}).Where("id = ? AND user_id = ?", portfolioID, userID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("gorm: check portfolio owner: %w", err)
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Relational) ListStocks(ctx context.Context, portfolioID, userID string) ([]models.Stock, error) {
	if err := r.owns(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	var list []models.Stock
	if err := r.DB.WithContext(ctx).Where("portfolio_id = ?", portfolioID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("gorm: list holdings: %w", err)
	}
	return list, nil
}

func (r *Relational) AddStock(ctx context.Context, userID string, s *models.Stock) error {
	if err := r.owns(ctx, s.PortfolioID, userID); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("gorm: add holding: %w", err)
	}
	return nil
}

func (r *Relational) UpdateStock(ctx context.Context, userID string, s *models.Stock) error {
	if err := r.owns(ctx, s.PortfolioID, userID); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Model(&models.Stock{}).
		Where("id = ? AND portfolio_id = ?", s.ID, s.PortfolioID).
		Updates(map[string]any{
			"ticker":         s.Ticker,
			"shares":         s.Shares,
			"purchase_price": s.PurchasePrice,
			"purchase_date":  s.PurchaseDate,
			"notes":          s.Notes,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("gorm: update holding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Relational) DeleteStock(ctx context.Context, portfolioID, stockID, userID string) error {
	if err := r.owns(ctx, portfolioID, userID); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Where("id = ? AND portfolio_id = ?", stockID, portfolioID).Delete(&models.Stock{})
	if res.Error != nil {
		return fmt.Errorf("gorm: delete holding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Relational) ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error) {
	var list []models.Bookmark
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("gorm: list bookmarks: %w", err)
	}
	return list, nil
}

func (r *Relational) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(b).Error; err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("gorm: create bookmark: %w", err)
	}
	return nil
}

func (r *Relational) DeleteBookmark(ctx context.Context, id, userID string) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return fmt.Errorf("gorm: delete bookmark: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
