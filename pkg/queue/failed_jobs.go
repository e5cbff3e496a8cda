package queue

import (
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// FailedJobRecord is a job that exhausted its retries, kept for inspection
// and manual replay.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// UseDB persists failed jobs to db. The table is created by migrations.
func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
}

func (m *Manager) persistFailed(typeName string, payload []byte, lastErr error, attempts int) {
	now := time.Now()
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{Type: typeName, Err: lastErr, FailedAt: now, Attempts: attempts})
	db := m.db
	m.mu.Unlock()

	if db == nil {
		return
	}
	record := FailedJobRecord{
		JobType:  typeName,
		Payload:  string(payload),
		Error:    msg,
		Attempts: attempts,
		FailedAt: now,
	}
	if err := db.Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", typeName, "error", err)
	}
}
