package mapping

import (
	"context"
	"errors"
	"testing"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() OptionResolver {
	return NewStaticOptions(map[string]map[string]string{
		"categories": {"Design": "cat-design"},
		"languages":  {"German": "lang-de", "English": "lang-en"},
		"countries":  {"Germany": "country-de"},
	})
}

func testRecord() models.RawFormRecord {
	return models.RawFormRecord{
		models.KeyProjectName: "Summer Launch",
		models.KeyJobTitle:    "Summer Launch",
		models.KeyMemberRef:   "mem-1",
		models.KeyCategory:    "Design",
		models.KeyLanguages:   []string{"German", "English"},
		models.KeyCountries:   []string{"Germany"},
		models.KeyBudget:      float64(1500),
		models.KeyJobOnline:   "2026-09-03T00:00:00Z",
		models.KeyRemote:      true,
		models.KeyPremium:     false,
	}
}

func TestMapSheetPayload(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)

	payload, err := m.Map(context.Background(), testRecord(), DestinationSheet)
	require.NoError(t, err)

	// The name field is always injected from the canonical title
	assert.Equal(t, "Summer Launch", payload["Name"])
	assert.Equal(t, "Summer Launch", payload["Project Name"])
	assert.Equal(t, float64(1500), payload["Budget"])
	assert.Equal(t, "mem-1", payload["Member Id"])
	assert.Equal(t, "New", payload["Status"])

	// Multi-selects land as joined text cells
	assert.Equal(t, "German, English", payload["Languages"])
	assert.Equal(t, "Germany", payload["Countries"])
}

func TestMapCMSPayload(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)

	payload, err := m.Map(context.Background(), testRecord(), DestinationCMS)
	require.NoError(t, err)

	assert.Equal(t, "Summer Launch", payload["name"])
	assert.Equal(t, false, payload["_draft"])
	assert.Equal(t, false, payload["_archived"])

	// Numeric budget is stringified for the CMS text field
	assert.Equal(t, "1500", payload["budget"])

	// Lookups resolve to opaque IDs; cardinality follows the field type
	assert.Equal(t, "cat-design", payload["category"])
	assert.Equal(t, []string{"lang-de", "lang-en"}, payload["languages"])
	assert.Equal(t, []string{"country-de"}, payload["countries"])

	// Keys irrelevant for the CMS never leak into the payload
	assert.NotContains(t, payload, "member-ref")
	assert.NotContains(t, payload, "contact-email")
}

func TestMapBlankBudgetSentinels(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)
	record := testRecord()
	delete(record, models.KeyBudget)

	sheet, err := m.Map(context.Background(), record, DestinationSheet)
	require.NoError(t, err)
	assert.Equal(t, float64(0), sheet["Budget"])

	cms, err := m.Map(context.Background(), record, DestinationCMS)
	require.NoError(t, err)
	assert.Equal(t, "tba", cms["budget"])
}

func TestMapStrictRejectsUnmappedKeys(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)
	record := testRecord()
	record["zz-unknown"] = "x"
	record["aa-unknown"] = "y"

	_, err := m.Map(context.Background(), record, DestinationSheet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLocalValidation))

	// Keys are named, sorted, so the failure is actionable
	assert.Contains(t, err.Error(), "aa-unknown, zz-unknown")
}

func TestMapLenientLogsUnmappedKeys(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), false)
	record := testRecord()
	record["zz-unknown"] = "x"

	payload, err := m.Map(context.Background(), record, DestinationSheet)
	require.NoError(t, err)
	assert.NotContains(t, payload, "zz-unknown")
}

func TestMapStrictRejectsUnknownOptionValue(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)
	record := testRecord()
	record[models.KeyCategory] = "Interpretive Dance"

	_, err := m.Map(context.Background(), record, DestinationCMS)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLocalValidation))
	assert.Contains(t, err.Error(), "Interpretive Dance")
}

func TestMapLenientDropsUnknownOptionValue(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), false)
	record := testRecord()
	record[models.KeyLanguages] = []string{"German", "Klingon"}

	payload, err := m.Map(context.Background(), record, DestinationCMS)
	require.NoError(t, err)
	assert.Equal(t, []string{"lang-de"}, payload["languages"])
}

func TestMapMembershipPayload(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)

	payload, err := m.Map(context.Background(), testRecord(), DestinationMembership)
	require.NoError(t, err)

	assert.Equal(t, "mem-1", payload["memberId"])
	assert.Equal(t, false, payload["premiumJob"])
	assert.Equal(t, "Summer Launch", payload["jobName"])
}

func TestMapUnknownDestination(t *testing.T) {
	m := NewMapper(JobSpecs(), testOptions(), true)

	_, err := m.Map(context.Background(), testRecord(), Destination("fax"))
	require.Error(t, err)
}
