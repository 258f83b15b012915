package forms

import (
	"testing"
	"time"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
}

func newTestCollector() *Collector {
	return NewCollectorAt(JobPostingSchema(), fixedNow)
}

func TestCollectBlankOptionalFields(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name":    "Summer Launch",
		"budget":          "",
		"job-online-date": "",
		"member-ref":      "mem-1",
	})

	// The title is mirrored from the project name
	assert.Equal(t, "Summer Launch", record.String(models.KeyJobTitle))
	assert.Equal(t, "Summer Launch", record.String(models.KeyProjectName))

	// Blank budget stays absent; the mapper applies per-destination sentinels
	assert.False(t, record.Has(models.KeyBudget))

	// Blank online date defaults to UTC midnight three days out
	assert.Equal(t, "2026-09-03T00:00:00Z", record.String(models.KeyJobOnline))
}

func TestCollectDateFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"german calendar date", "03.09.2026", "2026-09-03T00:00:00Z"},
		{"iso calendar date", "2026-09-03", "2026-09-03T00:00:00Z"},
		{"rfc3339 instant", "2026-09-03T08:15:00+02:00", "2026-09-03T06:15:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := newTestCollector().Collect(map[string]interface{}{
				"project-name":    "X",
				"member-ref":      "mem-1",
				"job-online-date": tt.input,
			})
			assert.Equal(t, tt.want, record.String(models.KeyJobOnline))
		})
	}
}

func TestCollectUnparseableDateFailsOpen(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name":    "X",
		"member-ref":      "mem-1",
		"job-online-date": "sometime soon",
	})

	// The bad value is dropped and the default takes over
	assert.Equal(t, "2026-09-03T00:00:00Z", record.String(models.KeyJobOnline))
}

func TestCollectCheckboxes(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name": "X",
		"member-ref":   "mem-1",
		"remote":       "on",
		"premium":      true,
	})

	assert.True(t, record.Bool(models.KeyRemote))
	assert.True(t, record.Bool(models.KeyPremium))
}

func TestCollectMultiSelectGroups(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name": "X",
		"member-ref":   "mem-1",
		"language":     []interface{}{"German", " English ", ""},
		"country":      "Germany",
	})

	assert.Equal(t, []string{"German", "English"}, record.Strings(models.KeyLanguages))
	assert.Equal(t, []string{"Germany"}, record.Strings(models.KeyCountries))
}

func TestCollectNumbers(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name": "X",
		"member-ref":   "mem-1",
		"budget":       "1500",
	})

	budget, ok := record.Float(models.KeyBudget)
	require.True(t, ok)
	assert.Equal(t, float64(1500), budget)

	record = newTestCollector().Collect(map[string]interface{}{
		"project-name": "X",
		"member-ref":   "mem-1",
		"budget":       "not a number",
	})
	assert.False(t, record.Has(models.KeyBudget))
}

func TestCollectTrimsAndDropsBlankText(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name": "  Summer Launch  ",
		"member-ref":   "mem-1",
		"description":  "   ",
	})

	assert.Equal(t, "Summer Launch", record.String(models.KeyProjectName))
	assert.False(t, record.Has(models.KeyDescription))
}

func TestCollectIgnoresUndeclaredKeys(t *testing.T) {
	record := newTestCollector().Collect(map[string]interface{}{
		"project-name": "X",
		"member-ref":   "mem-1",
		"csrf-token":   "abc123",
	})

	assert.False(t, record.Has("csrf-token"))
}

func TestDefaultOnlineDate(t *testing.T) {
	got := DefaultOnlineDate(time.Date(2026, 8, 31, 23, 50, 0, 0, time.FixedZone("CEST", 2*3600)))
	assert.Equal(t, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), got)
}
