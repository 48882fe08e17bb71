package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
)

// Notifier emits side effects that must never roll back the operation that triggered them.
type Notifier interface {
	SessionRequested(ctx context.Context, task *SessionRequestedTask) error
}

// QueueNotifier hands notifications to the task queue.
type QueueNotifier struct {
	queue TaskQueue
}

func NewQueueNotifier(queue TaskQueue) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

func (n *QueueNotifier) SessionRequested(ctx context.Context, task *SessionRequestedTask) error {
	if n == nil || n.queue == nil {
		return errors.New("notification queue not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.queue.Enqueue(task)
}

// NotificationService turns queued tasks into email.
type NotificationService struct {
	mailer Mailer
}

func NewNotificationService(mailer Mailer) *NotificationService {
	return &NotificationService{mailer: mailer}
}

// ProcessSessionRequested is the queue processor for TaskTypeSessionRequested.
func (s *NotificationService) ProcessSessionRequested(ctx context.Context, task *SessionRequestedTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if task.CoachEmail == "" {
		return fmt.Errorf("session %d: coach has no email", task.SessionID)
	}

	subject := fmt.Sprintf("[CoachFlow] New session request: %s", task.Title)
	return s.mailer.Send(task.CoachEmail, subject, buildSessionRequestBody(task))
}

func buildSessionRequestBody(t *SessionRequestedTask) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", html.EscapeString(t.CoachName)))
	sb.WriteString("<p>You have been requested to coach a new session.</p>")
	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")

	rows := []struct{ label, value string }{
		{"Session", t.Title},
		{"Starts", t.StartTime.Format("2006-01-02 15:04 MST")},
		{"Ends", t.EndTime.Format("2006-01-02 15:04 MST")},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>",
			r.label, html.EscapeString(r.value)))
	}
	sb.WriteString("</table>")

	sb.WriteString(fmt.Sprintf("<p><a href=\"%s\">Accept or decline the request</a></p>", html.EscapeString(t.AcceptURL)))
	sb.WriteString("</body></html>")

	return sb.String()
}
