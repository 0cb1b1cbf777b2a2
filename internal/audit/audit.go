// Package audit is the append-only security event sink. Recording is
// best-effort: a failed insert is logged and never propagated to the
// request path that produced the event.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:generate mockgen -destination=../mocks/mock_audit.go -package=mocks github.com/Jawa090/Rush-Management-system-sub000/internal/audit Recorder

// Event actions recorded by the auth subsystem.
const (
	ActionLoginSuccess   = "login_success"
	ActionLoginFailure   = "login_failure"
	ActionRefreshFailure = "refresh_failure"
	ActionLogout         = "logout"
	ActionLogoutAll      = "logout_all"
	ActionPasswordChange = "password_change"
	ActionAuthRejected   = "auth_rejected"
	ActionRateLimited    = "rate_limited"
)

// Event is one security-relevant occurrence. Token values are never put
// in an event; Code carries the machine failure code instead.
type Event struct {
	ID        string
	UserID    string
	Email     string
	Action    string
	Code      string
	IPAddress string
	Path      string
	Method    string
	CreatedAt time.Time
}

type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Execer is the slice of pgxpool.Pool the recorder needs; pgxmock
// satisfies it in tests.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PG persists events to the security_events table.
type PG struct {
	db Execer
}

func NewPG(db Execer) *PG {
	return &PG{db: db}
}

func (p *PG) Record(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.Exec(ctx, `
		INSERT INTO security_events (id, user_id, email, action, code, ip_address, path, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.UserID, e.Email, e.Action, e.Code, e.IPAddress, e.Path, e.Method, e.CreatedAt)
	if err != nil {
		log.Printf("audit: failed to record %s event: %v", e.Action, err)
	}
}

// Nop discards every event. Used in tests and as a fallback when the
// sink is not configured.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
