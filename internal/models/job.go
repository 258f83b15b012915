package models

import "time"

// Job is the read-side view of one published job item from the CMS.
type Job struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Languages     []string  `json:"languages,omitempty"`
	Countries     []string  `json:"countries,omitempty"`
	Budget        string    `json:"budget,omitempty"`
	Remote        bool      `json:"remote"`
	Premium       bool      `json:"premium"`
	Draft         bool      `json:"draft"`
	SheetRecordID string    `json:"sheetRecordId,omitempty"`
	PostedAt      time.Time `json:"postedAt,omitempty"`
}

// JobFromFieldData maps a CMS item's field data into a Job.
func JobFromFieldData(id, slug string, fields map[string]interface{}) *Job {
	job := &Job{
		ID:   id,
		Slug: slug,
	}

	if v, ok := fields["name"].(string); ok {
		job.Name = v
	}
	if v, ok := fields["description"].(string); ok {
		job.Description = v
	}
	if v, ok := fields["category"].(string); ok {
		job.Category = v
	}
	if v, ok := fields["budget"].(string); ok {
		job.Budget = v
	}
	if v, ok := fields["remote"].(bool); ok {
		job.Remote = v
	}
	if v, ok := fields["premium-job"].(bool); ok {
		job.Premium = v
	}
	if v, ok := fields["_draft"].(bool); ok {
		job.Draft = v
	}
	if v, ok := fields["sheet-record-id"].(string); ok {
		job.SheetRecordID = v
	}
	job.Languages = stringSlice(fields["languages"])
	job.Countries = stringSlice(fields["countries"])

	if v, ok := fields["job-online-date"].(string); ok && v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			job.PostedAt = t
		}
	}

	return job
}

func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// JobFilter holds the active checkbox values per filter group. Checkbox
// semantics: an empty group excludes nothing; a non-empty group includes a
// job when its field matches any active value.
type JobFilter struct {
	Categories []string `form:"category"`
	Languages  []string `form:"language"`
	Countries  []string `form:"country"`
	RemoteOnly bool     `form:"remote"`
}

// Matches reports whether a job passes every active filter group.
func (f *JobFilter) Matches(job *Job) bool {
	if len(f.Categories) > 0 && !contains(f.Categories, job.Category) {
		return false
	}
	if len(f.Languages) > 0 && !intersects(f.Languages, job.Languages) {
		return false
	}
	if len(f.Countries) > 0 && !intersects(f.Countries, job.Countries) {
		return false
	}
	if f.RemoteOnly && !job.Remote {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}

func intersects(active, present []string) bool {
	for _, a := range active {
		if contains(present, a) {
			return true
		}
	}
	return false
}

// JobList is a paginated job listing.
type JobList struct {
	Jobs   []*Job `json:"jobs"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// MemberSession is the authenticated submitter attached to the request
// context by the session middleware.
type MemberSession struct {
	MemberRef string `json:"memberRef"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Plan      string `json:"plan,omitempty"`
	ExpiresAt int64  `json:"expiresAt"`
	IssuedAt  int64  `json:"issuedAt"`
}
