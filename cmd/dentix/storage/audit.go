package storage

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/rs/zerolog"

	"github.com/SmileCareNL/dentix/models/audit"
)

// AuditSink receives one record per export call. The export pipeline writes
// through this interface so tests can capture entries in memory.
type AuditSink interface {
	Record(entry *audit.ExportAudit) error
}

// AuditStore persists export audit records through gorm.
type AuditStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewAuditStore creates the store and migrates the audit table.
func NewAuditStore(db *gorm.DB, log zerolog.Logger) (*AuditStore, error) {
	if err := db.AutoMigrate(&audit.ExportAudit{}).Error; err != nil {
		return nil, fmt.Errorf("failed to migrate export audit table: %w", err)
	}
	return &AuditStore{db: db, log: log}, nil
}

// Record inserts one audit entry.
func (s *AuditStore) Record(entry *audit.ExportAudit) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record export audit: %w", err)
	}
	s.log.Debug().Int("triples", entry.TriplesCount).Int64("durationMs", entry.DurationMS).Msg("Recorded export audit")
	return nil
}
