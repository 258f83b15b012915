package cache

import (
	"time"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
)

// JobCache is the TTL cache in front of the CMS read path. The listing the
// site renders does not need to be fresher than the TTL, and the CMS rate
// limit is tight enough that going to it per page view is not an option.
type JobCache struct {
	cache *gocache.Cache
}

// NewJobCache creates a cache holding entries for ttlSeconds.
func NewJobCache(ttlSeconds int) *JobCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &JobCache{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// GetList returns a cached listing page.
func (c *JobCache) GetList(key string) (*models.JobList, bool) {
	if v, found := c.cache.Get("list:" + key); found {
		metrics.CacheHits.WithLabelValues("jobs").Inc()
		return v.(*models.JobList), true
	}
	metrics.CacheMisses.WithLabelValues("jobs").Inc()
	return nil, false
}

// SetList stores a listing page.
func (c *JobCache) SetList(key string, list *models.JobList) {
	c.cache.SetDefault("list:"+key, list)
}

// GetJob returns a cached single job.
func (c *JobCache) GetJob(id string) (*models.Job, bool) {
	if v, found := c.cache.Get("job:" + id); found {
		metrics.CacheHits.WithLabelValues("jobs").Inc()
		return v.(*models.Job), true
	}
	metrics.CacheMisses.WithLabelValues("jobs").Inc()
	return nil, false
}

// SetJob stores a single job.
func (c *JobCache) SetJob(job *models.Job) {
	c.cache.SetDefault("job:"+job.ID, job)
}

// Flush empties the cache, called after a successful publish so the new job
// shows up without waiting out the TTL.
func (c *JobCache) Flush() {
	c.cache.Flush()
}
