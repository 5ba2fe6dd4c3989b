package sqlite

import (
	"context"
	"encoding/json"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
)

type auditEventsRepo struct {
	db dbtx
}

func (r *auditEventsRepo) CreateAuditEvent(ctx context.Context, e domain.AuditEvent) error {
	var metadata []byte
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		metadata = b
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, actor_id, user_id, client_ip, user_agent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.ActorID, mapOptionalString(e.UserID),
		e.ClientIP, e.UserAgent, metadata, e.CreatedAt,
	)
	return err
}
