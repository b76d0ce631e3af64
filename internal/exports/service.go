package exports

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quotient-crm/quotient/internal/shared"
	"github.com/quotient-crm/quotient/internal/storage"
)

// sweepBatchSize bounds how many due schedules one sweep picks up.
const sweepBatchSize = 100

// sweepConcurrency bounds the sweep fan-out.
const sweepConcurrency = 4

// Enqueuer hands export jobs to the background queue.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, exportID int64) error
}

// Service owns async exports and scheduled reports.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	files    storage.Storage
	enqueuer Enqueuer
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo Repository, files storage.Storage, enqueuer Enqueuer) *Service {
	return &Service{logger: logger, repo: repo, files: files, enqueuer: enqueuer, now: time.Now}
}

// RequestExport records a pending export and queues it for the worker.
func (s *Service) RequestExport(ctx context.Context, actor shared.Actor, req CreateExportRequest) (*Export, error) {
	id, err := s.repo.CreateExport(ctx, Export{
		CompanyID:   actor.CompanyID,
		ReportType:  ReportType(req.ReportType),
		Status:      ExportPending,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		RequestedBy: actor.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create export: %w", err)
	}
	if err := s.enqueuer.EnqueueExport(ctx, id); err != nil {
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	return s.GetExport(ctx, actor.CompanyID, id)
}

// GetExport returns one export with its download URL when completed.
func (s *Service) GetExport(ctx context.Context, companyID, id int64) (*Export, error) {
	e, err := s.repo.GetExport(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	s.attachURL(e)
	return e, nil
}

// ListExports returns the company's export history, newest first.
func (s *Service) ListExports(ctx context.Context, companyID int64, limit, offset int) ([]Export, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.repo.ListExports(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.attachURL(&list[i])
	}
	return list, nil
}

func (s *Service) attachURL(e *Export) {
	if e.Status == ExportCompleted && e.FilePath != nil {
		e.FileURL = s.files.URL(*e.FilePath)
	}
}

// Run executes one export job inside the worker. The claim flips the
// row to running; a job another worker already claimed is skipped
// silently, which makes re-deliveries idempotent.
func (s *Service) Run(ctx context.Context, exportID int64) error {
	claimed, err := s.repo.ClaimExport(ctx, exportID)
	if err != nil {
		return fmt.Errorf("claim export: %w", err)
	}
	if !claimed {
		return nil
	}

	e, err := s.repo.GetExportByID(ctx, exportID)
	if err != nil {
		return err
	}

	if err := s.execute(ctx, e); err != nil {
		s.logger.Error("export failed",
			slog.Int64("export_id", exportID),
			slog.String("report_type", string(e.ReportType)),
			slog.Any("error", err))
		if failErr := s.repo.FailExport(ctx, exportID, err.Error()); failErr != nil {
			return fmt.Errorf("mark export failed: %w", failErr)
		}
		return nil
	}
	return nil
}

func (s *Service) execute(ctx context.Context, e *Export) error {
	headers, rows, err := s.repo.FetchDataset(ctx, e.CompanyID, e.ReportType, e.DateFrom, e.DateTo)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}

	data, err := BuildWorkbook(string(e.ReportType), headers, rows)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}

	path := fmt.Sprintf("exports/%d/%s", e.CompanyID, exportFileName(e.ReportType, s.now()))
	if err := s.files.Store(ctx, path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store workbook: %w", err)
	}

	if err := s.repo.CompleteExport(ctx, e.ID, path, len(rows)); err != nil {
		return fmt.Errorf("complete export: %w", err)
	}
	s.logger.Info("export completed",
		slog.Int64("export_id", e.ID),
		slog.String("report_type", string(e.ReportType)),
		slog.Int("rows", len(rows)))
	return nil
}

// CreateSchedule registers a recurring report.
func (s *Service) CreateSchedule(ctx context.Context, actor shared.Actor, req CreateScheduleRequest) (int64, error) {
	freq := Frequency(req.Frequency)
	return s.repo.CreateSchedule(ctx, ScheduledReport{
		CompanyID:  actor.CompanyID,
		ReportType: ReportType(req.ReportType),
		Frequency:  freq,
		NextRunAt:  NextRun(freq, s.now()),
		Active:     true,
		CreatedBy:  actor.UserID,
	})
}

// ListSchedules returns the company's recurring reports.
func (s *Service) ListSchedules(ctx context.Context, companyID int64) ([]ScheduledReport, error) {
	return s.repo.ListSchedules(ctx, companyID)
}

// DeleteSchedule removes a recurring report.
func (s *Service) DeleteSchedule(ctx context.Context, companyID, id int64) error {
	return s.repo.DeleteSchedule(ctx, companyID, id)
}

// SweepSchedules queues an export for every due scheduled report and
// advances its next run. Safe to run concurrently; the per-row claim
// arbitrates.
func (s *Service) SweepSchedules(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDueSchedules(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due schedules: %w", err)
	}

	var queued atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, sched := range due {
		sched := sched
		g.Go(func() error {
			claimed, err := s.repo.ClaimDueSchedule(ctx, sched.ID, now, NextRun(sched.Frequency, now))
			if err != nil || !claimed {
				if err != nil {
					s.logger.Error("schedule claim failed",
						slog.Int64("schedule_id", sched.ID), slog.Any("error", err))
				}
				return nil
			}
			id, err := s.repo.CreateExport(ctx, Export{
				CompanyID:   sched.CompanyID,
				ReportType:  sched.ReportType,
				Status:      ExportPending,
				RequestedBy: sched.CreatedBy,
			})
			if err != nil {
				s.logger.Error("scheduled export create failed",
					slog.Int64("schedule_id", sched.ID), slog.Any("error", err))
				return nil
			}
			if err := s.enqueuer.EnqueueExport(ctx, id); err != nil {
				s.logger.Error("scheduled export enqueue failed",
					slog.Int64("export_id", id), slog.Any("error", err))
				return nil
			}
			queued.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(queued.Load()), err
	}
	return int(queued.Load()), nil
}
