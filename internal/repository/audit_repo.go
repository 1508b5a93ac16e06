package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-ceremony-portal/internal/model"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	occurredAt, err := time.Parse(time.RFC3339Nano, entry.OccurredAt)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	var actorID *int64
	if entry.Actor.PrincipalID > 0 {
		actorID = &entry.Actor.PrincipalID
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_id, actor_name, actor_role, actor_ip, status, resource, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.Action, occurredAt, actorID, entry.Actor.Name, entry.Actor.Role.String(), entry.Actor.IP,
		entry.Status, entry.Resource, entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query = query.Normalized()

	where := make([]string, 0, 5)
	args := make([]any, 0, 7)

	if action := strings.TrimSpace(query.Action); action != "" {
		args = append(args, action)
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", len(args)))
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("lower(status) = lower($%d)", len(args)))
	}
	if query.ActorID > 0 {
		args = append(args, query.ActorID)
		where = append(where, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if !query.Since.IsZero() {
		args = append(args, query.Since)
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !query.Until.IsZero() {
		args = append(args, query.Until)
		where = append(where, fmt.Sprintf("occurred_at < $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}
	meta := model.NewMeta(query.Page, query.Limit, total)

	args = append(args, query.Limit, (query.Page-1)*query.Limit)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT action, occurred_at, COALESCE(actor_id, 0), actor_name, actor_role, actor_ip,
		        status, resource, error_text
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var (
			e          model.AuditEntry
			occurredAt time.Time
			role       string
		)
		if err := rows.Scan(&e.Action, &occurredAt, &e.Actor.PrincipalID, &e.Actor.Name, &role, &e.Actor.IP,
			&e.Status, &e.Resource, &e.Error); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit entry: %w", err)
		}
		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
		e.Actor.Role = model.ParseRole(role)
		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}
