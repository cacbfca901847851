package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
)

type auditRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewAuditRepository(db *DB) repository.AuditRepository {
	return &auditRepository{
		db:     db,
		logger: db.logger,
	}
}

func (r *auditRepository) Record(ctx context.Context, action, actorID string, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return errors.ErrInternalServer.WithDetails(map[string]interface{}{"error": err.Error()})
	}

	query := `
		INSERT INTO audit_log (id, action, actor_id, details, recorded_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

	_, err = r.db.ExecContext(ctx, query, uuid.New().String(), action, actorID, payload, time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to record audit entry", zap.String("action", action), zap.Error(err))
		return errors.ErrDatabaseError
	}
	return nil
}
