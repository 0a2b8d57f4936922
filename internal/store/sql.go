package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roomRecord struct {
	ID        string `gorm:"primaryKey;size:128"`
	Config    string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (roomRecord) TableName() string { return "rooms" }

// SQL stores rooms in a relational table through gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL migrates the rooms table on db.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&roomRecord{}); err != nil {
		return nil, fmt.Errorf("migrate rooms: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Create(ctx context.Context, id domain.RoomID, data []byte) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roomRecord{ID: string(id), Config: string(data)})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateRoom
		}
		return fmt.Errorf("sql insert %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrDuplicateRoom
	}
	return nil
}

func (s *SQL) Put(ctx context.Context, id domain.RoomID, data []byte) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"config", "updated_at"}),
		}).
		Create(&roomRecord{ID: string(id), Config: string(data)}).Error
	if err != nil {
		return fmt.Errorf("sql upsert %s: %w", id, err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, id domain.RoomID) ([]byte, error) {
	var rec roomRecord
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql select %s: %w", id, err)
	}
	return []byte(rec.Config), nil
}

func (s *SQL) Delete(ctx context.Context, id domain.RoomID) error {
	if err := s.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&roomRecord{}).Error; err != nil {
		return fmt.Errorf("sql delete %s: %w", id, err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
