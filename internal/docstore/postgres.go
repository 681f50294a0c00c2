package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"marketplace-service/pkg/config"
)

// documentRow is the single table backing every collection: one JSONB payload
// per document, keyed by (collection, id).
type documentRow struct {
	Collection string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(128)"`
	Data       []byte `gorm:"type:jsonb;not null"`
}

func (documentRow) TableName() string {
	return "documents"
}

// Postgres is the production Store, persisting documents as JSONB rows.
// Mutate runs inside a transaction holding a row lock, which gives the
// per-document compare-and-swap the order workflow relies on.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to Postgres using the service configuration and
// migrates the documents table.
func OpenPostgres(cfg *config.Config) (*Postgres, error) {
	var logLevel logger.LogLevel
	switch cfg.Database.LogLevel {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	default:
		logLevel = logger.Info
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return Document{ID: row.ID, Data: row.Data}, nil
}

func (p *Postgres) Find(ctx context.Context, collection string, match func(Document) bool) ([]Document, error) {
	var rows []documentRow
	err := p.db.WithContext(ctx).
		Where("collection = ?", collection).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, row := range rows {
		doc := Document{ID: row.ID, Data: row.Data}
		if match == nil || match(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	row := documentRow{Collection: collection, ID: id, Data: data}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data"}),
		}).
		Create(&row).Error
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	return p.Mutate(ctx, collection, id, func(data json.RawMessage) (interface{}, error) {
		merged, err := mergeFields(data, fields)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(merged), nil
	})
}

func (p *Postgres) Add(ctx context.Context, collection string, doc interface{}) (string, error) {
	id := uuid.New().String()
	if err := p.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	result := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Mutate(ctx context.Context, collection, id string, fn func(data json.RawMessage) (interface{}, error)) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", collection, id).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		next, err := fn(row.Data)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}

		return tx.Model(&documentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Update("data", encoded).Error
	})
}
