package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	CompanyID int64
	ActorID   int64
	Action    string
	Scope     Scope
	Meta      map[string]any
	At        time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Scope.Type == "" || log.Scope.ID == 0 {
		return errors.New("audit log requires action and scope")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at any
	if !log.At.IsZero() {
		at = log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (company_id, actor_id, action, scope_type, scope_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		log.CompanyID, log.ActorID, log.Action, string(log.Scope.Type), log.Scope.ID, metaJSON, at)
	return err
}

// List returns audit entries for a scope, newest first.
func (l *AuditLogger) List(ctx context.Context, companyID int64, scope Scope, limit int) ([]AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx, `SELECT company_id, actor_id, action, scope_type, scope_id, meta, occurred_at FROM audit_logs WHERE company_id = $1 AND scope_type = $2 AND scope_id = $3 ORDER BY occurred_at DESC LIMIT $4`,
		companyID, string(scope.Type), scope.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var entry AuditLog
		var scopeType string
		var metaJSON []byte
		if err := rows.Scan(&entry.CompanyID, &entry.ActorID, &entry.Action, &scopeType, &entry.Scope.ID, &metaJSON, &entry.At); err != nil {
			return nil, err
		}
		entry.Scope.Type = ScopeType(scopeType)
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &entry.Meta)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
