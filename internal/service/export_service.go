package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ssgb-dev/logbook-api/internal/models"
	"github.com/ssgb-dev/logbook-api/internal/repository"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/export"
	"github.com/ssgb-dev/logbook-api/pkg/jobs"
	"github.com/ssgb-dev/logbook-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type exportRecordReader interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.RecordWithDetails, int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Table, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Table, sheetName string) ([]byte, error)
}

type exportMetricsRecorder interface {
	ExportJobFinished(status string)
}

// ExportConfig tunes export behaviour and cleanup.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService orchestrates asynchronous record exports: job rows in
// Postgres, rendering through the format exporters, files on local storage
// reachable via signed tokens.
type ExportService struct {
	repo      exportJobStore
	records   exportRecordReader
	queue     jobDispatcher
	storage   exportFileStorage
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       pdfRenderer
	xlsx      xlsxRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	metrics   exportMetricsRecorder
}

// SetMetrics attaches an optional job outcome recorder.
func (s *ExportService) SetMetrics(m exportMetricsRecorder) {
	s.metrics = m
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportJobStore, records exportRecordReader, queue jobDispatcher, fileStorage exportFileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:      repo,
		records:   records,
		queue:     queue,
		storage:   fileStorage,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		xlsx:      export.NewXLSXExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
// Students cannot start exports.
func (s *ExportService) CreateJob(ctx context.Context, req models.CreateExportRequest, actor Actor) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot export records")
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			Format:      req.Format,
			SubjectID:   req.SubjectID,
			Grade:       req.Grade,
			ClassNumber: req.ClassNumber,
			RecordType:  req.RecordType,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Params.Format)}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// GetStatus exposes job metadata, enforcing ownership for non-admins.
func (s *ExportService) GetStatus(ctx context.Context, id string, actor Actor) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your export job")
	}
	return job, nil
}

// ResolveDownload validates the signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	parts := strings.Split(relPath, "/")
	return &ExportDownload{
		File:      file,
		Filename:  parts[len(parts)-1],
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// ProcessJob is the queue handler: it renders the export and finishes the
// job row either way.
func (s *ExportService) ProcessJob(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status == models.ExportStatusFinished {
		return nil
	}

	processing := models.ExportStatusProcessing
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		s.logger.Warn("failed to mark job processing", zap.String("job_id", job.ID), zap.Error(err))
	}

	resultURL, genErr := s.generate(ctx, job)

	now := time.Now().UTC()
	progress := 100
	if genErr != nil {
		status := models.ExportStatusFailed
		msg := genErr.Error()
		if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status: &status, Progress: &progress, ErrorMessage: &msg, FinishedAt: &now,
		}); err != nil {
			s.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ExportJobFinished(string(models.ExportStatusFailed))
		}
		return genErr
	}

	status := models.ExportStatusFinished
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status: &status, Progress: &progress, ResultURL: &resultURL, FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finish export job %s: %w", job.ID, err)
	}
	if s.metrics != nil {
		s.metrics.ExportJobFinished(string(models.ExportStatusFinished))
	}
	return nil
}

func (s *ExportService) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	records, _, err := s.records.List(ctx, models.RecordFilter{
		SubjectID:   job.Params.SubjectID,
		Grade:       job.Params.Grade,
		ClassNumber: job.Params.ClassNumber,
		RecordType:  job.Params.RecordType,
		PageSize:    100,
	})
	if err != nil {
		return "", fmt.Errorf("load records for export: %w", err)
	}

	table := buildRecordTable(records)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(table)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(table, "student records")
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(table, "records")
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("records_%s.%s", time.Now().UTC().Format("20060102_150405"), job.Params.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", fmt.Errorf("store export file: %w", err)
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign download token: %w", err)
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	return fmt.Sprintf("%s/exports/download/%s", prefix, token), nil
}

func buildRecordTable(records []models.RecordWithDetails) export.Table {
	table := export.Table{
		Headers: []string{"student_number", "student_name", "subject", "record_type", "content", "char_count", "byte_count"},
	}
	for _, r := range records {
		content := ""
		if r.Content != nil {
			content = *r.Content
		}
		table.Rows = append(table.Rows, map[string]string{
			"student_number": r.StudentNumber,
			"student_name":   r.StudentName,
			"subject":        r.SubjectName,
			"record_type":    string(r.RecordType),
			"content":        content,
			"char_count":     strconv.Itoa(r.CharCount),
			"byte_count":     strconv.Itoa(r.ByteCount),
		})
	}
	return table
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ExportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Params.Format)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Sugar().Warnw("cleanup list failed", "error", err)
		return
	}
	for _, job := range finished {
		if job.ResultURL == nil {
			continue
		}
		idx := strings.LastIndex(*job.ResultURL, "/")
		if idx < 0 {
			continue
		}
		token := (*job.ResultURL)[idx+1:]
		_, relPath, _, err := s.signer.Parse(token, true)
		if err != nil {
			continue
		}
		if err := s.storage.Delete(relPath); err != nil {
			s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}
