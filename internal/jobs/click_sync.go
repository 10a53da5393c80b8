package jobs

import (
	"context"
	"log"

	click "anoa.com/linkbio/internal/modules/click/service"
)

const ClickSyncJobName = "click-sync"

// ClickSyncJob flushes buffered click counters into the database.
type ClickSyncJob struct {
	clicks   click.ClickService
	schedule string
}

func NewClickSyncJob(clicks click.ClickService, schedule string) *ClickSyncJob {
	return &ClickSyncJob{clicks: clicks, schedule: schedule}
}

func (j *ClickSyncJob) Name() string { return ClickSyncJobName }

func (j *ClickSyncJob) Schedule() string { return j.schedule }

func (j *ClickSyncJob) Run(ctx context.Context) error {
	synced, err := j.clicks.SyncClicks(ctx)
	if err != nil {
		return err
	}
	if synced > 0 {
		log.Printf("✅ [%s] Synced clicks for %d link/day pairs", ClickSyncJobName, synced)
	}
	return nil
}
