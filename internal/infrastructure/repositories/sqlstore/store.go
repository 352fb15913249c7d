package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/logging"
)

// Store persiste puntos de gráfico y cotizaciones históricas en SQLite (pure Go)
type Store struct {
	db *gorm.DB
}

// Open abre (o crea) la base en path y migra el esquema. ":memory:" es válido.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&ChartPointEntity{}, &HistoricalRateEntity{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logging.Info(context.Background(), "SQLite store ready", logging.Fields{"path": path})
	return &Store{db: db}, nil
}

func (s *Store) GetChartPoints(ctx context.Context, key entities.SubscriptionKey) ([]entities.ChartPoint, error) {
	var rows []ChartPointEntity
	err := s.db.WithContext(ctx).
		Where("type = ? AND coin = ? AND currency = ?", string(key.Kind), key.AssetID, key.CurrencyCode).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query chart points %s: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	points := make([]entities.ChartPoint, len(rows))
	for i, row := range rows {
		points[i] = row.toDomain()
	}
	return points, nil
}

// SaveChartPoints reemplaza la serie completa de la clave en una transacción
func (s *Store) SaveChartPoints(ctx context.Context, key entities.SubscriptionKey, points []entities.ChartPoint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("type = ? AND coin = ? AND currency = ?", string(key.Kind), key.AssetID, key.CurrencyCode).
			Delete(&ChartPointEntity{}).Error
		if err != nil {
			return fmt.Errorf("delete chart points %s: %w", key, err)
		}
		if len(points) == 0 {
			return nil
		}

		rows := make([]ChartPointEntity, len(points))
		for i, p := range points {
			rows[i] = newChartPointEntity(key, p)
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert chart points %s: %w", key, err)
		}
		return nil
	})
}

func (s *Store) GetHistoricalRate(ctx context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	var row HistoricalRateEntity
	err := s.db.WithContext(ctx).
		First(&row, "coin = ? AND currency = ? AND timestamp = ?", asset, currency, at.Unix()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query historical rate: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) SaveHistoricalRate(ctx context.Context, rate *entities.HistoricalRate) error {
	row := HistoricalRateEntity{
		Coin:      rate.Asset,
		Currency:  rate.Currency,
		Timestamp: rate.Timestamp,
		Value:     rate.Value,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// Ping verifica la conexión para el readiness check
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
