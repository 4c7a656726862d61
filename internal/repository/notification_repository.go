package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository scopes every mutation to the recipient that owns the row.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	CreateBatch(ctx context.Context, ns []domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint, req PageRequest) (PageResult[domain.Notification], error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, recipientID, id uint, now time.Time) error
	MarkAllRead(ctx context.Context, recipientID uint, now time.Time) (int64, error)
	DeleteByID(ctx context.Context, recipientID, id uint) error
	DeleteByRecipient(ctx context.Context, recipientID uint) (int64, error)
}

type GormNotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) record(ctx context.Context, op string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotificationNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	observability.RecordRepositoryOperation(ctx, "notification", op, outcome)
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	err := r.db.WithContext(ctx).Create(n).Error
	r.record(ctx, "create", err)
	return err
}

func (r *GormNotificationRepository) CreateBatch(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&ns).Error
	r.record(ctx, "create_batch", err)
	return err
}

func (r *GormNotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, req PageRequest) (PageResult[domain.Notification], error) {
	req = req.Clamp()
	base := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("recipient_id = ?", recipientID).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		r.record(ctx, "list_by_recipient", err)
		return PageResult[domain.Notification]{}, err
	}
	var items []domain.Notification
	if err := base.Order("created_at desc, id desc").Offset(req.Offset()).Limit(req.PageSize).Find(&items).Error; err != nil {
		r.record(ctx, "list_by_recipient", err)
		return PageResult[domain.Notification]{}, err
	}
	r.record(ctx, "list_by_recipient", nil)
	return newPageResult(req, items, total), nil
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	r.record(ctx, "count_unread", err)
	return n, err
}

// MarkRead is idempotent for an already-read row the recipient owns.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, recipientID, id uint, now time.Time) error {
	var existing domain.Notification
	err := r.db.WithContext(ctx).Select("id", "is_read").
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrNotificationNotFound
	}
	if err == nil && !existing.IsRead {
		err = r.db.WithContext(ctx).Model(&domain.Notification{}).
			Where("id = ? AND recipient_id = ?", id, recipientID).
			Updates(map[string]any{"is_read": true, "updated_at": now.UTC()}).Error
	}
	r.record(ctx, "mark_read", err)
	return err
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "updated_at": now.UTC()})
	r.record(ctx, "mark_all_read", res.Error)
	return res.RowsAffected, res.Error
}

func (r *GormNotificationRepository) DeleteByID(ctx context.Context, recipientID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&domain.Notification{})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrNotificationNotFound
	}
	r.record(ctx, "delete_by_id", err)
	return err
}

func (r *GormNotificationRepository) DeleteByRecipient(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&domain.Notification{})
	r.record(ctx, "delete_by_recipient", res.Error)
	return res.RowsAffected, res.Error
}
