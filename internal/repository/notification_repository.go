package repository

import (
	"context"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// NotificationRepo stores in-app notifications written by the queue consumer.
type NotificationRepo struct {
	db DBTX
}

func NewNotificationRepo(db DBTX) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification.  ErrDuplicate when the id is taken,
// which is how a redelivered message shows up.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications (id, user_id, category, title, body, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, n.ID, n.UserID, n.Category, n.Title, n.Body, n.Read, n.CreatedAt)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// ListByUser pages through a user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, page model.PageRequest) ([]model.Notification, int, error) {
	page = page.Normalize()
	where := "user_id = ?"
	if unreadOnly {
		where += " AND is_read = 0"
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE `+where, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT id, user_id, category, title, body, is_read, created_at FROM notifications WHERE ` + where +
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0, page.PageSize)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Category, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead flags one of the user's notifications as read.  ErrNotFound
// when the id does not belong to the user.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return expectFound(r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID))
}
