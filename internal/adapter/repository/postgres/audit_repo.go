package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/mfsledger/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateTx inserts an audit log entry inside tx, so the trail commits with
// the change it describes. Audit ids are random UUIDs assigned here.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return errForeignTransaction
	}

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	beforeStateJSON, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}

	afterStateJSON, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (
			id, user_id, action, resource_type, resource_id,
			ip_address, user_agent, request_id,
			before_state, after_state, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = t.PgxTx().Exec(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		beforeStateJSON,
		afterStateJSON,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering, oldest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var (
		query strings.Builder
		args  []any
	)

	query.WriteString(`
		SELECT id, user_id, action, resource_type, resource_id,
		       ip_address, user_agent, request_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1`)

	where := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query.WriteString(" AND " + column + " = $" + strconv.Itoa(len(args)))
	}
	where("user_id", filter.UserID)
	where("action", filter.Action)
	where("resource_type", filter.ResourceType)
	where("resource_id", filter.ResourceID)

	query.WriteString(" ORDER BY created_at, id")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	rows, err := r.db.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var beforeStateJSON, afterStateJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.IPAddress,
			&log.UserAgent,
			&log.RequestID,
			&beforeStateJSON,
			&afterStateJSON,
			&log.Status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if beforeStateJSON != nil {
			_ = json.Unmarshal(beforeStateJSON, &log.BeforeState)
		}

		if afterStateJSON != nil {
			_ = json.Unmarshal(afterStateJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// GetByResourceID retrieves all audit logs for a specific resource
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	return r.List(ctx, domain.AuditFilter{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}
