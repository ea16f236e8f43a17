package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/roledash/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionLogin      AuditAction = "login"
	ActionLogout     AuditAction = "logout"
	ActionRoleSwitch AuditAction = "role_switch"
	ActionExport     AuditAction = "export"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	SessionID string      `json:"sessionId,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      string      `json:"role,omitempty"`
	Format    string      `json:"format,omitempty"`
	Fields    int         `json:"fields,omitempty"`
	IPAddress string      `json:"ipAddress,omitempty"`
	UserAgent string      `json:"userAgent,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewAuditEntry starts an entry for action, filling the request metadata
// that middleware stored in ctx.
func NewAuditEntry(ctx context.Context, action AuditAction) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		SessionID: GetSessionIDFromContext(ctx),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
}

// AuditSink records audit entries. Recording failures are logged by the
// caller and never fail the audited operation.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// SlogAuditSink writes entries to the structured log.
type SlogAuditSink struct{}

func (SlogAuditSink) Record(ctx context.Context, e AuditEntry) error {
	logging.FromContext(ctx).LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_id", e.ID),
		slog.String("action", string(e.Action)),
		slog.String("session", e.SessionID),
		slog.String("email", e.Email),
		slog.String("role", e.Role),
		slog.String("format", e.Format),
		slog.Int("fields", e.Fields),
		slog.String("ip", e.IPAddress),
	)
	return nil
}

// AuditExecer is the subset of *pgxpool.Pool the Postgres sink needs.
type AuditExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS dashboard_audit (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	session_id  UUID,
	email       TEXT,
	role        TEXT,
	format      TEXT,
	fields      INTEGER,
	ip_address  INET,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS dashboard_audit_created_at_idx
	ON dashboard_audit (created_at DESC);
`

const insertAudit = `
INSERT INTO dashboard_audit
	(id, action, session_id, email, role, format, fields, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// PostgresAuditSink writes entries to the dashboard_audit table.
type PostgresAuditSink struct {
	db AuditExecer
}

// NewPostgresAuditSink creates a sink backed by db.
func NewPostgresAuditSink(db AuditExecer) *PostgresAuditSink {
	return &PostgresAuditSink{db: db}
}

// EnsureSchema creates the audit table if it does not exist.
func (p *PostgresAuditSink) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (p *PostgresAuditSink) Record(ctx context.Context, e AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.Exec(ctx, insertAudit,
		ToPgUUID(e.ID),
		string(e.Action),
		ToPgUUID(e.SessionID),
		ToPgText(e.Email),
		ToPgText(e.Role),
		ToPgText(e.Format),
		exportFields(e),
		ToPgInet(e.IPAddress),
		ToPgText(e.UserAgent),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// MultiAuditSink fans an entry out to several sinks. Every sink is tried;
// the errors are joined.
type MultiAuditSink []AuditSink

func (m MultiAuditSink) Record(ctx context.Context, e AuditEntry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// recordAudit logs and swallows sink failures.
func recordAudit(ctx context.Context, sink AuditSink, e AuditEntry) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit record failed",
			"action", e.Action,
			"error", err,
		)
	}
}

// exportFields is the field count column. An export of an empty record
// stores 0; entries for other actions store NULL.
func exportFields(e AuditEntry) pgtype.Int4 {
	if e.Action != ActionExport {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(e.Fields), Valid: true}
}
