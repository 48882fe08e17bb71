package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/huangang/coachflow/backend/internal/config"
)

type recordingMailer struct {
	to, subject, body string
	calls             int
	err               error
}

func (m *recordingMailer) Send(to, subject, htmlBody string) error {
	m.calls++
	m.to, m.subject, m.body = to, subject, htmlBody
	return m.err
}

type recordingQueue struct {
	tasks []*SessionRequestedTask
}

func (q *recordingQueue) Enqueue(task *SessionRequestedTask) error {
	q.tasks = append(q.tasks, task)
	return nil
}
func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func sampleTask() *SessionRequestedTask {
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	return &SessionRequestedTask{
		SessionID:  12,
		CoachName:  "Ada <Coach>",
		CoachEmail: "ada@example.com",
		Title:      "Go-to-market plan",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		AcceptURL:  "https://app.example.com/coach/sessions/12/respond",
	}
}

func TestProcessSessionRequested_SendsToCoach(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer)

	if err := svc.ProcessSessionRequested(context.Background(), sampleTask()); err != nil {
		t.Fatalf("ProcessSessionRequested() error = %v", err)
	}
	if mailer.to != "ada@example.com" {
		t.Errorf("to = %q", mailer.to)
	}
	if !strings.Contains(mailer.subject, "Go-to-market plan") {
		t.Errorf("subject = %q", mailer.subject)
	}
	if !strings.Contains(mailer.body, "https://app.example.com/coach/sessions/12/respond") {
		t.Error("body should contain the accept link")
	}
	if strings.Contains(mailer.body, "<Coach>") {
		t.Error("coach name should be escaped")
	}
}

func TestProcessSessionRequested_Errors(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("relay refused")}
	svc := NewNotificationService(mailer)
	if err := svc.ProcessSessionRequested(context.Background(), sampleTask()); err == nil {
		t.Error("expected mailer error to propagate")
	}

	task := sampleTask()
	task.CoachEmail = ""
	calls := mailer.calls
	if err := svc.ProcessSessionRequested(context.Background(), task); err == nil {
		t.Error("expected error for coach without email")
	}
	if mailer.calls != calls {
		t.Error("mailer should not be called without an address")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.ProcessSessionRequested(ctx, sampleTask()); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context error = %v", err)
	}
}

func TestQueueNotifier(t *testing.T) {
	var nilNotifier *QueueNotifier
	if err := nilNotifier.SessionRequested(context.Background(), sampleTask()); err == nil {
		t.Error("nil notifier should fail")
	}
	if err := NewQueueNotifier(nil).SessionRequested(context.Background(), sampleTask()); err == nil {
		t.Error("notifier without queue should fail")
	}

	q := &recordingQueue{}
	if err := NewQueueNotifier(q).SessionRequested(context.Background(), sampleTask()); err != nil {
		t.Fatalf("SessionRequested() error = %v", err)
	}
	if len(q.tasks) != 1 || q.tasks[0].SessionID != 12 {
		t.Errorf("queued tasks = %+v", q.tasks)
	}
}

func TestNewMailer(t *testing.T) {
	if _, ok := NewMailer(nil).(LogMailer); !ok {
		t.Error("nil config should produce LogMailer")
	}
	if _, ok := NewMailer(&config.SMTPConfig{Enabled: false, Host: "smtp"}).(LogMailer); !ok {
		t.Error("disabled SMTP should produce LogMailer")
	}
	m, ok := NewMailer(&config.SMTPConfig{Enabled: true, Host: "smtp.example.com", Port: 465, Username: "bot@example.com"}).(*SMTPMailer)
	if !ok {
		t.Fatal("enabled SMTP should produce *SMTPMailer")
	}
	if !m.dialer.SSL {
		t.Error("port 465 should use implicit TLS")
	}
	if m.from != "bot@example.com" {
		t.Errorf("from = %q, expected username fallback", m.from)
	}
}
