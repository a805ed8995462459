package models

import "time"

// Audit actions recorded by the audit middleware and services.
const (
	AuditActionLogin         = "auth.login"
	AuditActionLogout        = "auth.logout"
	AuditActionRefresh       = "auth.refresh"
	AuditActionPasswordReset = "auth.password_reset"
	AuditActionGradeUpsert   = "grades.upsert"
	AuditActionAbsenceRecord = "attendance.record"
)

// AuditLog is one immutable audit trail entry.
type AuditLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  *int64    `db:"entity_id" json:"entity_id,omitempty"`
	Detail    *string   `db:"detail" json:"detail,omitempty"`
	IP        string    `db:"ip" json:"ip"`
	UserAgent string    `db:"user_agent" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
