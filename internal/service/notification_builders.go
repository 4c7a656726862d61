package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
)

const (
	quoteLimit   = 50
	excerptLimit = 200
)

func truncateText(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func (d *NotificationDispatcher) NotifyPostComment(ctx context.Context, postAuthor, commenter domain.User, postID, commentID uint, postTitle string) (*DispatchResult, error) {
	return d.Dispatch(ctx, domain.NotificationKindPostComment, postAuthor, &commenter, NotificationFields{
		Title:     "New Comment on Your Post",
		Body:      fmt.Sprintf("%s commented on your post: \"%s\"", commenter.FullName, truncateText(postTitle, quoteLimit)),
		PostID:    &postID,
		CommentID: &commentID,
	})
}

func (d *NotificationDispatcher) NotifyCommentReply(ctx context.Context, commentAuthor, replier domain.User, postID, commentID, replyID uint, commentText string) (*DispatchResult, error) {
	return d.Dispatch(ctx, domain.NotificationKindCommentReply, commentAuthor, &replier, NotificationFields{
		Title:     "New Reply to Your Comment",
		Body:      fmt.Sprintf("%s replied to your comment: \"%s\"", replier.FullName, truncateText(commentText, quoteLimit)),
		PostID:    &postID,
		CommentID: &commentID,
		ReplyID:   &replyID,
	})
}

// NotifyNewPostToAdmins stores the title only; the escalation email also quotes the
// opening of the post content.
func (d *NotificationDispatcher) NotifyNewPostToAdmins(ctx context.Context, author domain.User, postID uint, postTitle, postContent string) (*DispatchResult, error) {
	return d.DispatchToAdmins(ctx, domain.NotificationKindNewPostAdmin, &author, NotificationFields{
		Title:   "New Post Created",
		Body:    fmt.Sprintf("%s created a new post: \"%s\"", author.FullName, truncateText(postTitle, quoteLimit)),
		PostID:  &postID,
		Excerpt: truncateText(strings.TrimSpace(postContent), excerptLimit),
	})
}

// NotifyWelcome is system-generated, so it carries no actor.
func (d *NotificationDispatcher) NotifyWelcome(ctx context.Context, user domain.User) (*DispatchResult, error) {
	return d.Dispatch(ctx, domain.NotificationKindWelcome, user, nil, NotificationFields{
		Title: fmt.Sprintf("Welcome to %s!", d.renderer.product),
		Body: fmt.Sprintf("Welcome %s! Thank you for joining %s. Start exploring posts, connect with your classmates, and share academic resources.",
			user.FullName, d.renderer.product),
	})
}
