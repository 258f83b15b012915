package forms

import (
	"strconv"
	"strings"
	"time"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"go.uber.org/zap"
)

// defaultOnlineDateOffset is how far in the future a job goes online when
// the submitter leaves the date blank.
const defaultOnlineDateOffset = 3 * 24 * time.Hour

// Collector turns a submitted field map into a RawFormRecord according to an
// explicit schema. It never fails: bad values are logged and dropped, and the
// caller validates required keys afterwards.
type Collector struct {
	schema []models.FieldSpec
	now    func() time.Time
}

// NewCollector creates a collector for the given schema.
func NewCollector(schema []models.FieldSpec) *Collector {
	return &Collector{
		schema: schema,
		now:    time.Now,
	}
}

// NewCollectorAt creates a collector with a fixed clock, for tests.
func NewCollectorAt(schema []models.FieldSpec, now func() time.Time) *Collector {
	return &Collector{schema: schema, now: now}
}

// Collect reads the submission into a RawFormRecord. Only keys declared in
// the schema are considered; everything else in the submission is ignored.
func (c *Collector) Collect(submission map[string]interface{}) models.RawFormRecord {
	record := models.RawFormRecord{}

	for _, spec := range c.schema {
		value, present := submission[spec.Key]

		switch spec.Kind {
		case models.KindCheckbox:
			record[spec.Key] = asBool(value)

		case models.KindMultiSelect:
			group := spec.Group
			if group == "" {
				group = spec.Key
			}
			for _, v := range asStrings(value) {
				existing, _ := record[group].([]string)
				record[group] = append(existing, v)
			}

		case models.KindRadio, models.KindSelect:
			if s := strings.TrimSpace(asString(value)); s != "" {
				record[spec.Key] = s
			}

		case models.KindNumber:
			if !present {
				continue
			}
			if f, ok := asFloat(value); ok {
				record[spec.Key] = f
			}

		case models.KindDate:
			s := strings.TrimSpace(asString(value))
			if s == "" {
				continue
			}
			instant, err := NormalizeDate(s)
			if err != nil {
				// Fails open: the field is dropped, not the submission
				logger.Warn("Unparseable date value dropped",
					zap.String("field", spec.Key),
					zap.String("value", s))
				continue
			}
			record[spec.Key] = instant.Format(time.RFC3339)

		case models.KindText, models.KindTextarea:
			if s := strings.TrimSpace(asString(value)); s != "" {
				record[spec.Key] = s
			}
		}
	}

	c.applyDefaults(record)
	return record
}

// applyDefaults fills in the synthesized fields: the canonical title mirror
// and the online date.
func (c *Collector) applyDefaults(record models.RawFormRecord) {
	if name := record.String(models.KeyProjectName); name != "" {
		record[models.KeyJobTitle] = name
	}

	if !record.Has(models.KeyJobOnline) {
		record[models.KeyJobOnline] = DefaultOnlineDate(c.now()).Format(time.RFC3339)
	}
}

// DefaultOnlineDate returns UTC midnight three days after now.
func DefaultOnlineDate(now time.Time) time.Time {
	d := now.UTC().Add(defaultOnlineDateOffset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeDate parses DD.MM.YYYY, YYYY-MM-DD, or an already-ISO string into
// a UTC instant. Calendar-date inputs resolve to UTC midnight of that date.
func NormalizeDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("02.01.2006", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func asStrings(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return trimmed(vals)
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return trimmed(out)
	case string:
		if strings.TrimSpace(vals) == "" {
			return nil
		}
		return []string{strings.TrimSpace(vals)}
	}
	return nil
}

func trimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		// Checkbox serializations seen from the site
		return b == "true" || b == "on" || b == "checked"
	}
	return false
}

func asFloat(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case string:
		s := strings.TrimSpace(f)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
