package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"route-ops/internal/models"
	"route-ops/pkg/email"
)

// ServiceInterface defines the scheduling business logic exposed to the
// HTTP layer.
type ServiceInterface interface {
	// GetSchedule recomputes the full schedule for the given horizon.
	GetSchedule(ctx context.Context, horizonDays int) (*models.Schedule, error)
	// SendUrgentDigest emails the operator the overdue and due-today tasks.
	SendUrgentDigest(ctx context.Context, recipient string) (int, error)
}

// Service implements ServiceInterface. The schedule is re-derived on every
// call; there is no background scheduler and no caching across requests.
type Service struct {
	repo     RepositoryInterface
	emailSvc email.ServiceInterface
	tmpl     *email.TemplateManager
	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewService creates a new schedule service.
func NewService(repo RepositoryInterface, emailSvc email.ServiceInterface, tmpl *email.TemplateManager) *Service {
	return &Service{repo: repo, emailSvc: emailSvc, tmpl: tmpl, now: time.Now}
}

// fetchSnapshots pulls every source entity the aggregator consumes.
func (s *Service) fetchSnapshots(ctx context.Context) (SnapshotSet, error) {
	var in SnapshotSet
	var err error

	if in.Locations, err = s.repo.ListLocations(ctx); err != nil {
		return in, fmt.Errorf("service.fetchSnapshots: %w", err)
	}
	if in.Routes, err = s.repo.ListRoutes(ctx); err != nil {
		return in, fmt.Errorf("service.fetchSnapshots: %w", err)
	}
	if in.MaintenanceReports, err = s.repo.ListOpenMaintenanceReports(ctx); err != nil {
		return in, fmt.Errorf("service.fetchSnapshots: %w", err)
	}
	if in.Leads, err = s.repo.ListOpenLeads(ctx); err != nil {
		return in, fmt.Errorf("service.fetchSnapshots: %w", err)
	}
	return in, nil
}

// GetSchedule fetches fresh snapshots and runs the aggregator.
func (s *Service) GetSchedule(ctx context.Context, horizonDays int) (*models.Schedule, error) {
	if horizonDays <= 0 {
		horizonDays = HorizonWeek
	}
	in, err := s.fetchSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeSchedule(in, s.now(), horizonDays)
}

// SendUrgentDigest computes today's urgent tasks and mails them to the
// recipient. Returns the number of tasks in the digest; sending nothing is
// not an error.
func (s *Service) SendUrgentDigest(ctx context.Context, recipient string) (int, error) {
	sched, err := s.GetSchedule(ctx, HorizonWeek)
	if err != nil {
		return 0, err
	}
	if len(sched.UrgentTasks) == 0 {
		log.Printf("INFO: urgent digest requested for %s but nothing is due", recipient)
		return 0, nil
	}

	rows := make([]email.DigestTask, 0, len(sched.UrgentTasks))
	for _, task := range sched.UrgentTasks {
		rows = append(rows, email.DigestTask{
			Title:    task.Title,
			Subtitle: task.Subtitle,
			Due:      task.DueDate.Format("Mon, Jan 2"),
			Status:   string(task.Status),
		})
	}

	today := DateOnly(s.now()).Format("Monday, Jan 2")
	html, err := s.tmpl.GenerateTaskDigestHTML(email.DigestData{Date: today, Tasks: rows})
	if err != nil {
		return 0, fmt.Errorf("service.SendUrgentDigest: render: %w", err)
	}

	subject := fmt.Sprintf("%d task(s) need attention today", len(sched.UrgentTasks))
	plain := fmt.Sprintf("You have %d overdue or due-today task(s). Open the dashboard for details.", len(sched.UrgentTasks))
	if err := s.emailSvc.SendEmail(ctx, []string{recipient}, subject, plain, html); err != nil {
		return 0, fmt.Errorf("service.SendUrgentDigest: send: %w", err)
	}
	return len(sched.UrgentTasks), nil
}
