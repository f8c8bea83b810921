package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
	"github.com/opencode-cafe/marketplace/common/clients"
	"github.com/opencode-cafe/marketplace/common/logger"
	"github.com/opencode-cafe/marketplace/common/queue"
)

// NotificationsTopic is the queue topic notification events flow through
const NotificationsTopic = "notifications"

// CommentPreviewLength is the preview size in comment notifications
const CommentPreviewLength = 200

// EventType identifies a notification event
type EventType string

const (
	EventExtensionSubmitted EventType = "extension.submitted"
	EventExtensionApproved  EventType = "extension.approved"
	EventExtensionRejected  EventType = "extension.rejected"
	EventCommentCreated     EventType = "comment.created"
)

// Event is a notification payload published after a mutation commits
type Event struct {
	Type            EventType `json:"type"`
	To              string    `json:"to"`
	AuthorName      string    `json:"authorName"`
	ExtensionName   string    `json:"extensionName"`
	ProductID       string    `json:"productId"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CommenterName   string    `json:"commenterName,omitempty"`
	CommentPreview  string    `json:"commentPreview,omitempty"`
}

// Notifier emits notification events. All methods are fire-and-forget:
// a delivery failure never reaches the triggering mutation.
type Notifier interface {
	ExtensionSubmitted(ctx context.Context, ext *models.Extension)
	ExtensionApproved(ctx context.Context, ext *models.Extension)
	ExtensionRejected(ctx context.Context, ext *models.Extension, reason string)
	CommentCreated(ctx context.Context, ext *models.Extension, commenterName, preview string)
}

// QueueNotifier publishes events to the in-process notification queue
type QueueNotifier struct {
	queue      queue.Queue
	adminEmail string
	log        *logger.Logger
}

// NewQueueNotifier creates a queue-backed notifier
func NewQueueNotifier(q queue.Queue, adminEmail string, log *logger.Logger) *QueueNotifier {
	return &QueueNotifier{
		queue:      q,
		adminEmail: adminEmail,
		log:        log,
	}
}

// ExtensionSubmitted notifies the admin address of a new submission
func (n *QueueNotifier) ExtensionSubmitted(ctx context.Context, ext *models.Extension) {
	if n.adminEmail == "" {
		return
	}
	n.publish(ctx, &Event{
		Type:          EventExtensionSubmitted,
		To:            n.adminEmail,
		AuthorName:    ext.Author.Name,
		ExtensionName: ext.DisplayName,
		ProductID:     ext.ProductID,
	})
}

// ExtensionApproved notifies the extension author of approval
func (n *QueueNotifier) ExtensionApproved(ctx context.Context, ext *models.Extension) {
	if ext.Author.Email == "" {
		return
	}
	n.publish(ctx, &Event{
		Type:          EventExtensionApproved,
		To:            ext.Author.Email,
		AuthorName:    ext.Author.Name,
		ExtensionName: ext.DisplayName,
		ProductID:     ext.ProductID,
	})
}

// ExtensionRejected notifies the extension author of rejection with the reason
func (n *QueueNotifier) ExtensionRejected(ctx context.Context, ext *models.Extension, reason string) {
	if ext.Author.Email == "" {
		return
	}
	n.publish(ctx, &Event{
		Type:            EventExtensionRejected,
		To:              ext.Author.Email,
		AuthorName:      ext.Author.Name,
		ExtensionName:   ext.DisplayName,
		ProductID:       ext.ProductID,
		RejectionReason: reason,
	})
}

// CommentCreated notifies the extension author of a new top-level comment
func (n *QueueNotifier) CommentCreated(ctx context.Context, ext *models.Extension, commenterName, preview string) {
	if ext.Author.Email == "" {
		return
	}
	n.publish(ctx, &Event{
		Type:           EventCommentCreated,
		To:             ext.Author.Email,
		AuthorName:     ext.Author.Name,
		ExtensionName:  ext.DisplayName,
		ProductID:      ext.ProductID,
		CommenterName:  commenterName,
		CommentPreview: preview,
	})
}

func (n *QueueNotifier) publish(ctx context.Context, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Error("failed to marshal notification event", "type", event.Type, "error", err)
		return
	}

	if err := n.queue.Publish(ctx, NotificationsTopic, string(event.Type), payload); err != nil {
		n.log.Error("failed to publish notification event", "type", event.Type, "error", err)
	}
}

// PreviewOf truncates comment content for notification bodies.
// The limit counts characters, not bytes, so multibyte content is never
// split mid-rune.
func PreviewOf(content string) string {
	runes := []rune(content)
	if len(runes) > CommentPreviewLength {
		return string(runes[:CommentPreviewLength]) + "..."
	}
	return content
}

// Dispatcher consumes notification events and sends emails.
// Failures are logged and dropped; there is no retry.
type Dispatcher struct {
	sender clients.EmailSender
	log    *logger.Logger
}

// NewDispatcher creates a notification dispatcher
func NewDispatcher(sender clients.EmailSender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		log:    log,
	}
}

// Start subscribes the dispatcher to the notification topic
func (d *Dispatcher) Start(ctx context.Context, q queue.Queue) error {
	return q.Subscribe(ctx, NotificationsTopic, d.handle)
}

func (d *Dispatcher) handle(ctx context.Context, key string, value []byte) error {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		d.log.Error("invalid notification event", "key", key, "error", err)
		return nil
	}

	msg, err := buildEmail(&event)
	if err != nil {
		d.log.Error("failed to build notification email", "type", event.Type, "error", err)
		return nil
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		// Fire-and-forget: a lost notification is acceptable
		d.log.Error("failed to send notification email", "type", event.Type, "to", event.To, "error", err)
		return nil
	}

	d.log.Info("notification sent", "type", event.Type, "to", event.To)
	return nil
}

var emailTemplates = map[EventType]*template.Template{
	EventExtensionSubmitted: template.Must(template.New("submitted").Parse(
		`<p>New extension submitted for review:</p>
<p><strong>{{.ExtensionName}}</strong> ({{.ProductID}}) by {{.AuthorName}}</p>`)),
	EventExtensionApproved: template.Must(template.New("approved").Parse(
		`<p>Hi {{.AuthorName}},</p>
<p>Your extension <strong>{{.ExtensionName}}</strong> ({{.ProductID}}) has been approved and is now live.</p>`)),
	EventExtensionRejected: template.Must(template.New("rejected").Parse(
		`<p>Hi {{.AuthorName}},</p>
<p>Your extension <strong>{{.ExtensionName}}</strong> ({{.ProductID}}) was not approved.</p>
<p>Reason: {{.RejectionReason}}</p>
<p>You can edit your submission and it will be reviewed again.</p>`)),
	EventCommentCreated: template.Must(template.New("comment").Parse(
		`<p>Hi {{.AuthorName}},</p>
<p>{{.CommenterName}} commented on <strong>{{.ExtensionName}}</strong>:</p>
<blockquote>{{.CommentPreview}}</blockquote>`)),
}

func buildEmail(event *Event) (*clients.EmailMessage, error) {
	tmpl, ok := emailTemplates[event.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, event); err != nil {
		return nil, fmt.Errorf("render email body: %w", err)
	}

	var subject string
	switch event.Type {
	case EventExtensionSubmitted:
		subject = fmt.Sprintf("New extension submission: %q", event.ExtensionName)
	case EventExtensionApproved:
		subject = fmt.Sprintf("Your extension %q has been approved", event.ExtensionName)
	case EventExtensionRejected:
		subject = fmt.Sprintf("Update on your extension %q", event.ExtensionName)
	case EventCommentCreated:
		subject = fmt.Sprintf("New comment on %q", event.ExtensionName)
	}

	return &clients.EmailMessage{
		To:      event.To,
		Subject: subject,
		HTML:    body.String(),
	}, nil
}
