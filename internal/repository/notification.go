package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trukapp/truka/internal/models"
)

type NotificationRepository interface {
	Insert(notification *models.Notification, tx *sqlx.Tx) (string, error)
	AllByUser(userID string) ([]models.Notification, error)
	MarkRead(id, userID string) (bool, error)
}

type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (repo *NotificationRepositoryImpl) Insert(notification *models.Notification, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO notifications (user_id, title, message, type, order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	args := []any{
		notification.UserID,
		notification.Title,
		notification.Message,
		notification.Type,
		notification.OrderID,
	}

	if tx != nil {
		err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query, args...)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *NotificationRepositoryImpl) AllByUser(userID string) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	notifications := []models.Notification{}

	query := `
        SELECT id, user_id, title, message, type, order_id, is_read, created_at
        FROM notifications WHERE user_id=$1
        ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &notifications, query, userID)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

// MarkRead only updates notifications owned by the given user, so a
// caller can never flip someone else's notification.
func (repo *NotificationRepositoryImpl) MarkRead(id, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE notifications SET is_read=true WHERE id=$1 AND user_id=$2`

	result, err := repo.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
