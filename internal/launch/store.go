package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokenlaunch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("token launch not found")

// ListQuery selects a page of launches. Order fields outside the allowed
// set fall back to created_at.
type ListQuery struct {
	Page       int
	PageSize   int
	OrderField string
	OrderType  string
	Protocol   string
	Network    string
	Payer      string
}

var listOrderFields = map[string]bool{
	"id":          true,
	"mint":        true,
	"name":        true,
	"symbol":      true,
	"supply":      true,
	"protocol":    true,
	"network":     true,
	"launched_at": true,
	"created_at":  true,
	"updated_at":  true,
}

// Normalize applies the paging defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 10
	}
	if !listOrderFields[q.OrderField] {
		q.OrderField = "created_at"
	}
	if q.OrderType != "asc" && q.OrderType != "desc" {
		q.OrderType = "desc"
	}
	return q
}

// GormResultStore keeps launch results in the token_launches table.
type GormResultStore struct {
	db *gorm.DB
}

func NewGormResultStore(db *gorm.DB) *GormResultStore {
	return &GormResultStore{db: db}
}

// ResultToModel converts a launch result into its database row.
func ResultToModel(r *Result) *models.TokenLaunch {
	return &models.TokenLaunch{
		Mint:          r.Mint,
		Name:          r.Name,
		Symbol:        r.Symbol,
		Description:   r.Description,
		Decimals:      int(r.Decimals),
		Supply:        r.Supply,
		Protocol:      string(r.Protocol),
		Network:       string(r.Network),
		Payer:         r.Payer,
		Status:        string(r.Status),
		Signatures:    models.StringSlice(r.Signatures),
		MetadataURI:   r.MetadataURI,
		ExplorerURL:   r.ExplorerURL,
		BundleID:      r.BundleID,
		LandingStatus: r.LandingStatus,
		Warnings:      models.StringSlice(r.Warnings),
		Website:       r.Links.Website,
		Twitter:       r.Links.Twitter,
		Telegram:      r.Links.Telegram,
		Discord:       r.Links.Discord,
		LaunchedAt:    r.Timestamp,
	}
}

// Save upserts the result by mint.
func (s *GormResultStore) Save(ctx context.Context, r *Result) error {
	row := ResultToModel(r)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save launch %s: %w", r.Mint, err)
	}
	return nil
}

func (s *GormResultStore) FindByMint(ctx context.Context, mint string) (*models.TokenLaunch, error) {
	var row models.TokenLaunch
	err := s.db.WithContext(ctx).Where("mint = ?", mint).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns one page of launches and the total matching count.
func (s *GormResultStore) List(ctx context.Context, q ListQuery) ([]models.TokenLaunch, int64, error) {
	q = q.Normalize()

	tx := s.db.WithContext(ctx).Model(&models.TokenLaunch{})
	if q.Protocol != "" {
		tx = tx.Where("protocol = ?", q.Protocol)
	}
	if q.Network != "" {
		tx = tx.Where("network = ?", q.Network)
	}
	if q.Payer != "" {
		tx = tx.Where("payer = ?", q.Payer)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TokenLaunch
	err := tx.Order(q.OrderField + " " + q.OrderType).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// PendingBundles returns bundle launches still awaiting a landing
// decision, oldest first.
func (s *GormResultStore) PendingBundles(ctx context.Context, limit int) ([]models.TokenLaunch, error) {
	var rows []models.TokenLaunch
	err := s.db.WithContext(ctx).
		Where("landing_status = ? AND bundle_id <> ''", models.LandingPending).
		Order("launched_at asc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// UpdateLandingStatus records the landing decision for mint.
func (s *GormResultStore) UpdateLandingStatus(ctx context.Context, mint, landing string, status Status) error {
	res := s.db.WithContext(ctx).Model(&models.TokenLaunch{}).
		Where("mint = ?", mint).
		Updates(map[string]interface{}{
			"landing_status": landing,
			"status":         string(status),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
