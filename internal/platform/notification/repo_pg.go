package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type notificationRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &notificationRepoPG{pool: pool}
}

func (r *notificationRepoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification (id, recipient_role, recipient_id, category, subject, body)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.RecipientRole, n.RecipientID, n.Category, n.Subject, n.Body)
	return err
}

func (r *notificationRepoPG) ListForRecipient(ctx context.Context, role string, recipientID *uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notification
		WHERE recipient_role = $1 AND ($2::uuid IS NULL OR recipient_id = $2)`,
		role, recipientID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_role, recipient_id, category, subject, body, read, created_at
		FROM notification
		WHERE recipient_role = $1 AND ($2::uuid IS NULL OR recipient_id = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		role, recipientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientRole, &n.RecipientID, &n.Category,
			&n.Subject, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &n)
	}
	return items, total, rows.Err()
}
