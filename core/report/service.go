package report

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/Fernando88323/PortalDocente-sub001/core"
)

type (
	// Client fetches report payloads from the academic-records upstream.
	Client interface {
		ApprovalRows(ctx context.Context, f Filters) ([]ApprovalSource, error)
		SolvencyRows(ctx context.Context, f Filters) ([]SolvencySource, error)
	}

	Service struct {
		client Client
		mail   core.EmailService
		logger core.Logger
	}
)

func NewService(client Client, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{client: client, mail: mailSvc, logger: logger}
}

// Approval fetches and aggregates the approval-rate summary.
func (svc *Service) Approval(ctx context.Context, f Filters, passMark float64) ([]ApprovalRow, error) {
	f.Kind = KindApproval
	if err := f.Validate(); err != nil {
		return nil, err
	}
	rows, err := svc.client.ApprovalRows(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "fetching approval report rows")
	}
	return BuildApproval(rows, passMark), nil
}

// Solvency fetches and aggregates the payment-solvency summary.
func (svc *Service) Solvency(ctx context.Context, f Filters) ([]SolvencyRow, error) {
	f.Kind = KindSolvency
	if err := f.Validate(); err != nil {
		return nil, err
	}
	rows, err := svc.client.SolvencyRows(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "fetching solvency report rows")
	}
	return BuildSolvency(rows), nil
}

// Export builds the requested summary and mails it as a CSV attachment.
// It refuses to run unless every filter the report kind needs is selected.
func (svc *Service) Export(ctx context.Context, f Filters, passMark float64, recipients []mail.Address) error {
	if err := f.Validate(); err != nil {
		return err
	}

	var att core.Attachment
	var err error
	switch f.Kind {
	case KindApproval:
		var rows []ApprovalRow
		if rows, err = svc.Approval(ctx, f, passMark); err == nil {
			att, err = ApprovalCSV(f.Cycle.String(), rows)
		}
	case KindSolvency:
		var rows []SolvencyRow
		if rows, err = svc.Solvency(ctx, f); err == nil {
			att, err = SolvencyCSV(f.Cycle.String(), rows)
		}
	}
	if err != nil {
		return err
	}

	svc.mail.SendMessages(&core.EmailMessage{
		To:          recipients,
		Subject:     fmt.Sprintf("Reporte %s - ciclo %s", f.Kind, f.Cycle),
		TextContent: fmt.Sprintf("Se adjunta el reporte de %s del ciclo %s.", f.Kind, f.Cycle),
		Attachments: []core.Attachment{att},
	})
	return nil
}
