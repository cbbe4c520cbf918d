package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"decp/notification-service/internal/model"
)

// Schema:
//
//	CREATE TABLE notifications (
//	    id           BIGSERIAL PRIMARY KEY,
//	    recipient_id TEXT NOT NULL,
//	    type         TEXT NOT NULL,
//	    content      TEXT NOT NULL,
//	    link         TEXT NOT NULL DEFAULT '',
//	    is_read      BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX idx_notifications_recipient ON notifications (recipient_id, id DESC);

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Insert persists a notification and returns it with id and createdAt filled.
func (r *NotificationRepository) Insert(ctx context.Context, n model.Notification) (model.Notification, error) {
	query := `
        INSERT INTO notifications (recipient_id, type, content, link)
        VALUES ($1, $2, $3, $4)
        RETURNING id, is_read, created_at
    `
	err := r.db.QueryRow(ctx, query, n.RecipientID, n.Type, n.Content, n.Link).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.String("recipient_id", n.RecipientID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return model.Notification{}, err
	}

	r.logger.Info("Notification inserted",
		zap.Int64("id", n.ID),
		zap.String("recipient_id", n.RecipientID),
		zap.String("type", n.Type),
	)
	return n, nil
}

// ListByRecipient returns up to limit notifications for a recipient, newest
// first. A non-zero cursor restricts results to ids strictly below it, which
// matches the createdAt ordering because ids are assigned monotonically.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, cursor int64, limit int) ([]model.Notification, error) {
	query := `
        SELECT id, recipient_id, type, content, link, is_read, created_at
        FROM notifications
        WHERE recipient_id = $1 AND ($2 = 0 OR id < $2)
        ORDER BY id DESC
        LIMIT $3
    `
	rows, err := r.db.Query(ctx, query, recipientID, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Content, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flips is_read for one notification, scoped to the recipient so a
// user cannot acknowledge someone else's notification. Returns nil when no row
// matched.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, recipientID string) (*model.Notification, error) {
	query := `
        UPDATE notifications
        SET is_read = TRUE
        WHERE id = $1 AND recipient_id = $2
        RETURNING id, recipient_id, type, content, link, is_read, created_at
    `
	var n model.Notification
	err := r.db.QueryRow(ctx, query, id, recipientID).
		Scan(&n.ID, &n.RecipientID, &n.Type, &n.Content, &n.Link, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
