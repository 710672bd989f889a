package report

import (
	"context"
	"net/mail"
	"testing"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type fakeClient struct {
	approval []ApprovalSource
	solvency []SolvencySource
	err      error
}

func (c *fakeClient) ApprovalRows(ctx context.Context, f Filters) ([]ApprovalSource, error) {
	return c.approval, c.err
}

func (c *fakeClient) SolvencyRows(ctx context.Context, f Filters) ([]SolvencySource, error) {
	return c.solvency, c.err
}

type fakeMail struct {
	sent []*core.EmailMessage
}

func (m *fakeMail) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

func TestService_Approval(t *testing.T) {
	client := &fakeClient{approval: []ApprovalSource{
		{GroupID: 1, Subject: "Redes I", NF: 8},
		{GroupID: 1, Subject: "Redes I", NF: 4},
	}}
	svc := NewService(client, &fakeMail{}, testLogger{})

	rows, err := svc.Approval(context.Background(), Filters{Cycle: "01/25"}, 6)
	if err != nil {
		t.Fatalf("Approval() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Approved != 1 || rows[0].Failed != 1 {
		t.Errorf("Approval() = %+v", rows)
	}

	// an unset cycle is rejected before any fetch
	if _, err := svc.Approval(context.Background(), Filters{}, 6); err == nil {
		t.Error("Approval() without cycle expected an error")
	}
}

func TestService_Solvency(t *testing.T) {
	client := &fakeClient{solvency: []SolvencySource{{Cuota: "1", Solvente: true}}}
	svc := NewService(client, &fakeMail{}, testLogger{})

	rows, err := svc.Solvency(context.Background(), Filters{Cycle: "01/25", Cuota: "1"})
	if err != nil {
		t.Fatalf("Solvency() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Solvent != 1 {
		t.Errorf("Solvency() = %+v", rows)
	}

	if _, err := svc.Solvency(context.Background(), Filters{Cycle: "01/25"}); err == nil {
		t.Error("Solvency() without cuota expected an error")
	}
}

func TestService_Export(t *testing.T) {
	client := &fakeClient{approval: []ApprovalSource{{GroupID: 1, Subject: "Redes I", NF: 8}}}
	mailSvc := &fakeMail{}
	svc := NewService(client, mailSvc, testLogger{})

	recipients := []mail.Address{{Name: "Decano", Address: "decano@test.test"}}
	f := Filters{Kind: KindApproval, Cycle: "01/25"}
	if err := svc.Export(context.Background(), f, 6, recipients); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if len(mailSvc.sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(mailSvc.sent))
	}
	msg := mailSvc.sent[0]
	if !msg.HasRecipients() || !msg.HasAttachments() {
		t.Errorf("message = %+v, want recipients and an attachment", msg)
	}
	if msg.Attachments[0].Filename != "aprobacion_01-25.csv" {
		t.Errorf("attachment = %s", msg.Attachments[0].Filename)
	}

	// incomplete filters refuse to export
	if err := svc.Export(context.Background(), Filters{Kind: KindSolvency, Cycle: "01/25"}, 6, recipients); err == nil {
		t.Error("Export() without cuota expected an error")
	}

	// upstream failure aborts before sending anything
	client.err = errors.New("boom")
	if err := svc.Export(context.Background(), f, 6, recipients); err == nil {
		t.Error("Export() expected the upstream error")
	}
	if len(mailSvc.sent) != 1 {
		t.Errorf("sent = %d messages after failures, want still 1", len(mailSvc.sent))
	}
}
