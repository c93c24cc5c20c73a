package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ironsheep/logo-gallery/internal/models"
)

// PostgresStore persists logos through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects with dsn and migrates the logos table.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newPostgresStore(db)
}

func newPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&models.Logo{}); err != nil {
		return nil, fmt.Errorf("migrate logos: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ListLogos(ctx context.Context) ([]models.Logo, error) {
	var logos []models.Logo
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&logos).Error; err != nil {
		return nil, fmt.Errorf("list logos: %w", err)
	}
	return logos, nil
}

func (s *PostgresStore) ListLogosByOwner(ctx context.Context, ownerID string) ([]models.Logo, error) {
	var logos []models.Logo
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at, id").
		Find(&logos).Error
	if err != nil {
		return nil, fmt.Errorf("list logos of %s: %w", ownerID, err)
	}
	return logos, nil
}

func (s *PostgresStore) GetLogo(ctx context.Context, id string) (*models.Logo, error) {
	var logo models.Logo
	err := s.db.WithContext(ctx).First(&logo, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get logo %s: %w", id, err)
	}
	return &logo, nil
}

func (s *PostgresStore) CreateLogo(ctx context.Context, logo *models.Logo) error {
	err := s.db.WithContext(ctx).Create(logo).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert logo %s: %w", logo.ID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
