package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/campus-notify-core/internal/clock"
	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/repository"
)

const defaultFanoutLimit = 8

type NotificationView struct {
	domain.Notification
	ActorName string `json:"actor_name,omitempty"`
}

type NotificationFields struct {
	Title     string
	Body      string
	PostID    *uint
	CommentID *uint
	ReplyID   *uint
	// Excerpt is appended to escalation emails only; it is never stored.
	Excerpt string
}

type DispatchResult struct {
	Suppressed    bool
	Notifications []domain.Notification
	Outcomes      []Outcome
}

// NotificationDispatcher persists notifications and fans them out to delivery channels.
// Only persistence can fail a dispatch.
type NotificationDispatcher struct {
	repo     repository.NotificationRepository
	users    UserDirectory
	realtime DeliveryChannel
	email    DeliveryChannel
	renderer *EmailRenderer
	clock    clock.Clock
	logger   *slog.Logger
}

func NewNotificationDispatcher(
	repo repository.NotificationRepository,
	users UserDirectory,
	realtime DeliveryChannel,
	email DeliveryChannel,
	renderer *EmailRenderer,
	clk clock.Clock,
	logger *slog.Logger,
) *NotificationDispatcher {
	if renderer == nil {
		renderer = NewEmailRenderer("", "")
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationDispatcher{
		repo:     repo,
		users:    users,
		realtime: realtime,
		email:    email,
		renderer: renderer,
		clock:    clk,
		logger:   logger,
	}
}

type fanoutTarget struct {
	user    domain.User
	view    NotificationView
	excerpt string
}

// Dispatch notifies a single recipient. An actor acting on their own content produces
// nothing unless the kind is an admin broadcast.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, kind domain.NotificationKind, recipient domain.User, actor *domain.User, fields NotificationFields) (*DispatchResult, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if !kind.AdminBroadcast() && actor != nil && actor.ID == recipient.ID {
		observability.RecordNotificationDispatch(ctx, string(kind), "suppressed")
		return &DispatchResult{Suppressed: true}, nil
	}

	n := d.build(kind, recipient.ID, actor, fields)
	if err := d.repo.Create(ctx, &n); err != nil {
		observability.RecordNotificationDispatch(ctx, string(kind), "store_error")
		return nil, fmt.Errorf("%w: persist notification: %w", ErrStoreUnavailable, err)
	}
	observability.RecordNotificationDispatch(ctx, string(kind), "persisted")
	observability.RecordNotificationRecipients(ctx, string(kind), 1)

	target := fanoutTarget{user: recipient, view: NotificationView{Notification: n, ActorName: actorName(actor)}, excerpt: fields.Excerpt}
	return &DispatchResult{
		Notifications: []domain.Notification{n},
		Outcomes:      d.fanOut(ctx, kind, []fanoutTarget{target}, false),
	}, nil
}

// DispatchToAdmins notifies every administrator except the actor. All rows are written
// in one batch before any delivery starts.
func (d *NotificationDispatcher) DispatchToAdmins(ctx context.Context, kind domain.NotificationKind, actor *domain.User, fields NotificationFields) (*DispatchResult, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	admins, err := d.users.ListAdmins(ctx)
	if err != nil {
		observability.RecordNotificationDispatch(ctx, string(kind), "store_error")
		return nil, fmt.Errorf("%w: list admins: %w", ErrStoreUnavailable, err)
	}
	recipients := make([]domain.User, 0, len(admins))
	for _, a := range admins {
		if actor != nil && a.ID == actor.ID {
			continue
		}
		recipients = append(recipients, a)
	}
	observability.RecordNotificationRecipients(ctx, string(kind), len(recipients))
	if len(recipients) == 0 {
		observability.RecordNotificationDispatch(ctx, string(kind), "no_recipients")
		return &DispatchResult{}, nil
	}

	rows := make([]domain.Notification, 0, len(recipients))
	for _, r := range recipients {
		rows = append(rows, d.build(kind, r.ID, actor, fields))
	}
	if err := d.repo.CreateBatch(ctx, rows); err != nil {
		observability.RecordNotificationDispatch(ctx, string(kind), "store_error")
		return nil, fmt.Errorf("%w: persist notifications: %w", ErrStoreUnavailable, err)
	}
	observability.RecordNotificationDispatch(ctx, string(kind), "persisted")

	name := actorName(actor)
	targets := make([]fanoutTarget, 0, len(rows))
	for i := range rows {
		targets = append(targets, fanoutTarget{
			user:    recipients[i],
			view:    NotificationView{Notification: rows[i], ActorName: name},
			excerpt: fields.Excerpt,
		})
	}
	return &DispatchResult{
		Notifications: rows,
		Outcomes:      d.fanOut(ctx, kind, targets, kind.AdminBroadcast()),
	}, nil
}

func (d *NotificationDispatcher) build(kind domain.NotificationKind, recipientID uint, actor *domain.User, fields NotificationFields) domain.Notification {
	now := d.clock.Now()
	n := domain.Notification{
		RecipientID:      recipientID,
		Title:            fields.Title,
		Body:             fields.Body,
		Kind:             kind,
		RelatedPostID:    fields.PostID,
		RelatedCommentID: fields.CommentID,
		RelatedReplyID:   fields.ReplyID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if actor != nil {
		id := actor.ID
		n.ActorID = &id
	}
	return n
}

// fanOut runs every channel attempt concurrently, each under its channel's own timeout,
// and returns outcomes in a stable order: per target realtime then email, broadcast last.
func (d *NotificationDispatcher) fanOut(ctx context.Context, kind domain.NotificationKind, targets []fanoutTarget, broadcast bool) []Outcome {
	type job struct {
		channel DeliveryChannel
		addr    DeliveryAddress
		payload DeliveryPayload
	}
	jobs := make([]job, 0, len(targets)*2+1)
	for _, t := range targets {
		addr := DeliveryAddress{UserID: t.user.ID, Email: t.user.Email, Name: t.user.FullName}
		payload := DeliveryPayload{Notification: t.view}
		if d.realtime != nil {
			jobs = append(jobs, job{channel: d.realtime, addr: addr, payload: payload})
		}
		if d.email != nil && kind.EmailEscalation() {
			msg, err := d.renderer.Notification(t.view, t.user.FullName, t.excerpt)
			if err != nil {
				d.logger.ErrorContext(ctx, "render notification email failed", "notification_id", t.view.ID, "error", err)
			} else {
				payload.Email = &msg
			}
			jobs = append(jobs, job{channel: d.email, addr: addr, payload: payload})
		}
	}
	if broadcast && d.realtime != nil && len(targets) > 0 {
		jobs = append(jobs, job{
			channel: d.realtime,
			addr:    DeliveryAddress{Broadcast: true},
			payload: DeliveryPayload{Notification: targets[0].view},
		})
	}

	outcomes := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(defaultFanoutLimit)
	for i, j := range jobs {
		g.Go(func() error {
			outcomes[i] = j.channel.Deliver(ctx, j.addr, j.payload)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Status != DeliveryFailed {
			continue
		}
		d.logger.WarnContext(ctx, "notification delivery failed",
			"kind", kind,
			"channel", o.Channel,
			"recipient_id", o.RecipientID,
			"reason", o.Reason,
			"error", o.Err,
		)
	}
	return outcomes
}

func actorName(actor *domain.User) string {
	if actor == nil {
		return ""
	}
	return actor.FullName
}

func (d *NotificationDispatcher) ListForUser(ctx context.Context, userID uint, req repository.PageRequest) (repository.PageResult[NotificationView], error) {
	page, err := d.repo.ListByRecipient(ctx, userID, req)
	if err != nil {
		return repository.PageResult[NotificationView]{}, fmt.Errorf("%w: list notifications: %w", ErrStoreUnavailable, err)
	}
	ids := make([]uint, 0, len(page.Items))
	seen := map[uint]struct{}{}
	for _, n := range page.Items {
		if n.ActorID == nil {
			continue
		}
		if _, ok := seen[*n.ActorID]; ok {
			continue
		}
		seen[*n.ActorID] = struct{}{}
		ids = append(ids, *n.ActorID)
	}
	names, err := d.users.FindNamesByIDs(ctx, ids)
	if err != nil {
		return repository.PageResult[NotificationView]{}, fmt.Errorf("%w: resolve actor names: %w", ErrStoreUnavailable, err)
	}

	return repository.MapPage(page, func(n domain.Notification) NotificationView {
		v := NotificationView{Notification: n}
		if n.ActorID != nil {
			v.ActorName = names[*n.ActorID]
		}
		return v
	}), nil
}

func (d *NotificationDispatcher) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := d.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %w", ErrStoreUnavailable, err)
	}
	return n, nil
}

func (d *NotificationDispatcher) MarkRead(ctx context.Context, userID, id uint) error {
	return mapNotificationErr(d.repo.MarkRead(ctx, userID, id, d.clock.Now()))
}

func (d *NotificationDispatcher) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := d.repo.MarkAllRead(ctx, userID, d.clock.Now())
	return n, mapNotificationErr(err)
}

func (d *NotificationDispatcher) Delete(ctx context.Context, userID, id uint) error {
	return mapNotificationErr(d.repo.DeleteByID(ctx, userID, id))
}

func (d *NotificationDispatcher) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	n, err := d.repo.DeleteByRecipient(ctx, userID)
	return n, mapNotificationErr(err)
}

func mapNotificationErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotificationNotFound):
		return ErrNotificationNotFound
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
