package model

import "time"

// AuditAction вид записи журнала действий
type AuditAction string

const (
	AuditRegistration       AuditAction = "registration"
	AuditUnregistration     AuditAction = "unregistration"
	AuditPermissionRequest  AuditAction = "permission_request"
	AuditPermissionResponse AuditAction = "permission_response"
	AuditPermissionRevoked  AuditAction = "permission_revoked"
	AuditCodeRetrieved      AuditAction = "code_retrieved"
	AuditCodeNotFound       AuditAction = "code_not_found"
	AuditCodeFetchFailed    AuditAction = "code_fetch_failed"
)

// AuditEntry запись журнала; только добавляется, не меняется и не удаляется
type AuditEntry struct {
	ID        int64       `db:"id"`
	SubjectID int64       `db:"subject_id"`
	Action    AuditAction `db:"action"`
	Detail    string      `db:"detail"`
	At        time.Time   `db:"at"`
}
