// Package audit holds the persisted record written after every pod export.
package audit

import "time"

// ExportAudit is one audit entry per export call, written whether the export
// succeeded or failed.
type ExportAudit struct {
	ID           uint      `gorm:"primary_key" json:"id"`
	TestDate     time.Time `json:"testDate"`
	DurationMS   int64     `json:"duration"`
	SolidServer  string    `json:"solidServer"`
	TriplesCount int       `json:"triplesCount"`
}

// TableName keeps the gorm table name stable.
func (ExportAudit) TableName() string {
	return "export_audits"
}
