package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteStore implements ports.CaptureStore using GORM and SQLite.
type SQLiteStore struct {
	db *gorm.DB
}

// HandshakeModel is the GORM model for completed captures. A BSSID keeps
// one row; recapturing it overwrites the previous result.
type HandshakeModel struct {
	BSSID        string `gorm:"primaryKey"`
	Channel      int
	Messages     uint8
	EAPOLPackets int
	StartedAt    time.Time
	CaptureTime  time.Time `gorm:"index"`
}

// SessionModel is the GORM model for finished attack sessions.
type SessionModel struct {
	ID               string `gorm:"primaryKey"`
	Type             string `gorm:"index"`
	Vendor           string
	Target           string
	Status           string
	StartTime        time.Time `gorm:"index"`
	EndTime          *time.Time
	PacketsSent      uint64
	TransmitFailures uint64
	ErrorMessage     string
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema. Use "file::memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}

	// a single connection keeps in-memory databases alive and serializes writes
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&HandshakeModel{}, &SessionModel{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// SaveHandshake upserts a completed capture.
func (s *SQLiteStore) SaveHandshake(ctx context.Context, state domain.HandshakeState) error {
	model := handshakeToModel(state)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// ListHandshakes returns captures, most recent first.
func (s *SQLiteStore) ListHandshakes(ctx context.Context) ([]domain.HandshakeState, error) {
	var models []HandshakeModel
	if err := s.db.WithContext(ctx).Order("capture_time desc").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.HandshakeState, 0, len(models))
	for _, m := range models {
		st, err := handshakeToDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// SaveSession upserts an attack session by ID.
func (s *SQLiteStore) SaveSession(ctx context.Context, session domain.AttackSession) error {
	model := sessionToModel(session)
	return s.db.WithContext(ctx).Save(&model).Error
}

// ListSessions returns up to limit sessions, newest first. A non-positive
// limit returns all of them.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]domain.AttackSession, error) {
	q := s.db.WithContext(ctx).Order("start_time desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []SessionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AttackSession, 0, len(models))
	for _, m := range models {
		out = append(out, sessionToDomain(m))
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
