// Package store keeps a catalog of recordings in MySQL, so the history
// survives pruning of the recordings directory.
package store

import (
	"fmt"
	"time"

	"motioncam/video"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Recording struct {
	gorm.Model

	Identifier  string `gorm:"uniqueIndex;size:32"`
	TriggeredAt time.Time
	Path        string
	Score       int
	Manual      bool
}

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&Recording{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the connection for other tables, e.g. push subscriptions.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func toRow(r *video.Record) *Recording {
	return &Recording{
		Identifier:  r.Identifier,
		TriggeredAt: r.TriggeredAt,
		Path:        r.VideoPath,
		Score:       r.Score,
		Manual:      r.Manual,
	}
}

func (s *Store) StartRecording(r *video.Record) {}

// StopRecording adds the finished recording to the catalog.
func (s *Store) StopRecording(r *video.Record) {
	if err := s.db.Create(toRow(r)).Error; err != nil {
		log.Errorf("Failed to add %v to catalog: %v", r.Identifier, err)
	}
}

// Recent returns up to limit recordings, newest first.
func (s *Store) Recent(limit int) ([]*Recording, error) {
	var rows []*Recording
	err := s.db.Order("triggered_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
