package services

import (
	"context"
	"fmt"

	"github.com/creatorjobs/creatorjobs-api/internal/cache"
	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/pkg/sheetdb"
	"github.com/creatorjobs/creatorjobs-api/pkg/webflow"
	"golang.org/x/sync/errgroup"
)

// batchFetchConcurrency caps the parallel CMS reads in GetJobsByIDs.
const batchFetchConcurrency = 5

// CMSReader is the slice of the CMS client the read side needs.
type CMSReader interface {
	ListItems(ctx context.Context, collectionID string, limit, offset int) ([]webflow.Item, int, error)
	GetItem(ctx context.Context, collectionID, itemID string) (*webflow.Item, error)
}

// MemberJobsReader looks up a member's own rows in the sheet backend.
type MemberJobsReader interface {
	SearchMember(ctx context.Context, memberRef string) ([]sheetdb.Record, error)
}

// JobsService serves the public read side: the filtered job listing, single
// jobs, and a member's own submissions. CMS pages are cached by page key;
// the checkbox filter is applied in memory on top of the cached page, the
// same way the site used to filter client-side.
type JobsService struct {
	cms          CMSReader
	sheet        MemberJobsReader
	jobCache     *cache.JobCache
	collectionID string
}

// NewJobsService wires the read side.
func NewJobsService(cms CMSReader, sheet MemberJobsReader, jobCache *cache.JobCache, collectionID string) *JobsService {
	return &JobsService{
		cms:          cms,
		sheet:        sheet,
		jobCache:     jobCache,
		collectionID: collectionID,
	}
}

// List returns one page of published jobs passing the filter. Drafts never
// appear.
func (s *JobsService) List(ctx context.Context, filter *models.JobFilter, limit, offset int) (*models.JobList, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.loadPage(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Job, 0, len(page.Jobs))
	for _, job := range page.Jobs {
		if job.Draft {
			continue
		}
		if filter == nil || filter.Matches(job) {
			filtered = append(filtered, job)
		}
	}

	return &models.JobList{
		Jobs:   filtered,
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// GetJob returns one job by CMS item ID.
func (s *JobsService) GetJob(ctx context.Context, itemID string) (*models.Job, error) {
	if job, found := s.jobCache.GetJob(itemID); found {
		return job, nil
	}

	item, err := s.cms.GetItem(ctx, s.collectionID, itemID)
	if err != nil {
		return nil, err
	}

	job := models.JobFromFieldData(item.ID, item.Slug, item.FieldData)
	s.jobCache.SetJob(job)
	return job, nil
}

// GetJobsByIDs fetches several jobs concurrently, preserving input order.
func (s *JobsService) GetJobsByIDs(ctx context.Context, itemIDs []string) ([]*models.Job, error) {
	jobs := make([]*models.Job, len(itemIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchFetchConcurrency)

	for i, id := range itemIDs {
		g.Go(func() error {
			job, err := s.GetJob(gctx, id)
			if err != nil {
				return err
			}
			jobs[i] = job
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// MemberJobs lists a member's own submissions from the sheet backend.
func (s *JobsService) MemberJobs(ctx context.Context, memberRef string) ([]*models.MemberJob, error) {
	records, err := s.sheet.SearchMember(ctx, memberRef)
	if err != nil {
		return nil, err
	}

	jobs := make([]*models.MemberJob, 0, len(records))
	for _, rec := range records {
		job := &models.MemberJob{SheetRecordID: rec.ID}
		if v, ok := rec.Fields["Name"].(string); ok {
			job.Name = v
		}
		if v, ok := rec.Fields["CMS Item Id"].(string); ok {
			job.CMSItemID = v
		}
		if v, ok := rec.Fields["Status"].(string); ok {
			job.Status = v
		}
		if v, ok := rec.Fields["Premium"].(bool); ok {
			job.Premium = v
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// loadPage fetches one raw CMS page, through the cache.
func (s *JobsService) loadPage(ctx context.Context, limit, offset int) (*models.JobList, error) {
	key := fmt.Sprintf("%d:%d", limit, offset)
	if page, found := s.jobCache.GetList(key); found {
		return page, nil
	}

	items, total, err := s.cms.ListItems(ctx, s.collectionID, limit, offset)
	if err != nil {
		return nil, err
	}

	jobs := make([]*models.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, models.JobFromFieldData(item.ID, item.Slug, item.FieldData))
	}

	page := &models.JobList{Jobs: jobs, Total: total, Limit: limit, Offset: offset}
	s.jobCache.SetList(key, page)
	return page, nil
}
