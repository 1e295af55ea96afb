package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sfoufcat/coachhub/internal/models"
	"github.com/sfoufcat/coachhub/internal/services"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultBatchSize    = 20
	defaultMaxAttempts  = 5
	defaultRetryBackoff = time.Minute
)

type outboxStore interface {
	ClaimPending(ctx context.Context, limit int, now time.Time) ([]models.OutboxJob, error)
	MarkDone(ctx context.Context, jobID string) error
	MarkRetry(ctx context.Context, jobID string, maxAttempts int, backoff time.Duration) error
}

type contentStore interface {
	ListPricedByProgram(ctx context.Context, orgID string, programID string) ([]models.ContentItem, error)
	HasPurchase(ctx context.Context, userID string, contentID string) (bool, error)
	InsertPurchase(ctx context.Context, purchase models.ContentPurchase) error
}

type enrollmentActivator interface {
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
}

// OutboxWorker drains the outbox_jobs table: content grants and task syncs
// recorded during enrollment, plus promotion of upcoming enrollments whose
// start date has arrived.
type OutboxWorker struct {
	outboxRepo     outboxStore
	contentRepo    contentStore
	enrollmentRepo enrollmentActivator
	taskSync       services.TaskSyncService
	logger         *zap.Logger
	interval       time.Duration
}

func NewOutboxWorker(
	outboxRepo outboxStore,
	contentRepo contentStore,
	enrollmentRepo enrollmentActivator,
	taskSync services.TaskSyncService,
	logger *zap.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		outboxRepo:     outboxRepo,
		contentRepo:    contentRepo,
		enrollmentRepo: enrollmentRepo,
		taskSync:       taskSync,
		logger:         logger,
		interval:       defaultPollInterval,
	}
}

// Run polls until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *OutboxWorker) tick(ctx context.Context) {
	now := time.Now()

	promoted, err := w.enrollmentRepo.ActivateDue(ctx, now)
	if err != nil {
		w.logger.Error("enrollment activation failed", zap.Error(err))
	} else if promoted > 0 {
		w.logger.Info("enrollments activated", zap.Int64("count", promoted))
	}

	jobs, err := w.outboxRepo.ClaimPending(ctx, defaultBatchSize, now)
	if err != nil {
		w.logger.Error("outbox claim failed", zap.Error(err))
		return
	}

	for i := range jobs {
		w.process(ctx, &jobs[i])
	}
}

func (w *OutboxWorker) process(ctx context.Context, job *models.OutboxJob) {
	var err error
	switch job.Kind {
	case models.OutboxJobContentGrant:
		err = w.grantContent(ctx, job)
	case models.OutboxJobTaskSync:
		err = w.syncTasks(ctx, job)
	default:
		w.logger.Error("unknown outbox job kind", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
		err = w.outboxRepo.MarkDone(ctx, job.ID)
		if err != nil {
			w.logger.Error("outbox mark done failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	if err != nil {
		w.logger.Warn("outbox job failed",
			zap.String("job_id", job.ID),
			zap.String("kind", job.Kind),
			zap.Int("attempts", job.Attempts),
			zap.Error(err),
		)
		if retryErr := w.outboxRepo.MarkRetry(ctx, job.ID, defaultMaxAttempts, defaultRetryBackoff); retryErr != nil {
			w.logger.Error("outbox mark retry failed", zap.String("job_id", job.ID), zap.Error(retryErr))
		}
		return
	}

	if err := w.outboxRepo.MarkDone(ctx, job.ID); err != nil {
		w.logger.Error("outbox mark done failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// grantContent gives the enrolled user every priced content item attached to
// the program. Grants are keyed on (user, content) so re-runs are no-ops.
func (w *OutboxWorker) grantContent(ctx context.Context, job *models.OutboxJob) error {
	var payload models.EnrollmentJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}

	items, err := w.contentRepo.ListPricedByProgram(ctx, job.OrgID, payload.ProgramID)
	if err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		owned, err := w.contentRepo.HasPurchase(ctx, payload.UserID, item.ID)
		if err != nil {
			return err
		}
		if owned {
			continue
		}
		purchase := models.ContentPurchase{
			ID:        uuid.NewString(),
			OrgID:     job.OrgID,
			UserID:    payload.UserID,
			ContentID: item.ID,
			Source:    models.ContentPurchaseSourceProgramGrant,
		}
		if err := w.contentRepo.InsertPurchase(ctx, purchase); err != nil {
			return err
		}
		w.logger.Info("content granted",
			zap.String("user_id", payload.UserID),
			zap.String("content_id", item.ID),
			zap.String("program_id", payload.ProgramID),
		)
	}
	return nil
}

func (w *OutboxWorker) syncTasks(ctx context.Context, job *models.OutboxJob) error {
	var payload models.EnrollmentJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}
	mode := payload.Mode
	if mode == "" {
		mode = services.TaskSyncModeFillEmpty
	}
	return w.taskSync.SyncProgramTasks(ctx, payload.UserID, payload.EnrollmentID, mode)
}
