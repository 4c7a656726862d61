package domain

import "time"

type NotificationKind string

const (
	NotificationKindCommentReply NotificationKind = "comment_reply"
	NotificationKindPostComment  NotificationKind = "post_comment"
	NotificationKindNewPostAdmin NotificationKind = "new_post_admin"
	NotificationKindWelcome      NotificationKind = "welcome"
)

// AdminBroadcast reports whether the kind fans out to every administrator and
// escalates by email.
func (k NotificationKind) AdminBroadcast() bool {
	return k == NotificationKindNewPostAdmin
}

// EmailEscalation reports whether recipients also get the notification by email.
func (k NotificationKind) EmailEscalation() bool {
	return k == NotificationKindNewPostAdmin || k == NotificationKindWelcome
}

func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindCommentReply, NotificationKindPostComment, NotificationKindNewPostAdmin, NotificationKindWelcome:
		return true
	default:
		return false
	}
}

type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	RecipientID      uint             `gorm:"not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Body             string           `gorm:"size:1000;not null" json:"body"`
	Kind             NotificationKind `gorm:"size:32;not null" json:"kind"`
	IsRead           bool             `gorm:"not null;default:false;index:idx_notifications_recipient_read" json:"is_read"`
	RelatedPostID    *uint            `json:"related_post_id,omitempty"`
	RelatedCommentID *uint            `json:"related_comment_id,omitempty"`
	RelatedReplyID   *uint            `json:"related_reply_id,omitempty"`
	ActorID          *uint            `json:"actor_id,omitempty"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
