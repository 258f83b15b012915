package mapping

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	apperrors "github.com/creatorjobs/creatorjobs-api/pkg/errors"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"go.uber.org/zap"
)

// Destination identifies a downstream service vocabulary.
type Destination string

const (
	DestinationSheet      Destination = "sheet"
	DestinationCMS        Destination = "cms"
	DestinationMembership Destination = "membership"
)

// Cardinality declares how a multi-valued source field lands in the
// destination. The receiving schema decides: array fields stay arrays, plain
// text fields get a joined string, single-reference fields keep the first
// value only.
type Cardinality int

const (
	CardinalityScalar Cardinality = iota
	CardinalityArray
	CardinalityJoined
	CardinalityFirst
)

// FieldMapping translates one record key into one destination field.
type FieldMapping struct {
	Source      string
	Target      string
	Cardinality Cardinality
	Lookup      string // option table name for enum/reference fields, "" for plain values
	Stringify   bool   // format numeric values as strings for text destination fields
}

// DestinationSpec is the full vocabulary of one destination service.
type DestinationSpec struct {
	Destination Destination
	NameField   string // required title field, always populated
	Mappings    []FieldMapping
	Ignore      []string               // record keys known to be irrelevant for this destination
	Inject      map[string]interface{} // constants every payload carries (draft/admin flags)
	BlankValues map[string]interface{} // sentinel per source key when the record lacks it
}

// Mapper produces ServicePayloads from RawFormRecords. In strict mode any
// record key with no destination mapping is an error rather than silent data
// loss; lenient mode logs and continues.
type Mapper struct {
	specs   map[Destination]*DestinationSpec
	options OptionResolver
	strict  bool
}

// NewMapper creates a mapper over the given destination specs.
func NewMapper(specs []*DestinationSpec, options OptionResolver, strict bool) *Mapper {
	byDest := make(map[Destination]*DestinationSpec, len(specs))
	for _, spec := range specs {
		byDest[spec.Destination] = spec
	}
	return &Mapper{specs: byDest, options: options, strict: strict}
}

// Map translates the record into the destination's ServicePayload.
func (m *Mapper) Map(ctx context.Context, record models.RawFormRecord, dest Destination) (models.ServicePayload, error) {
	spec, ok := m.specs[dest]
	if !ok {
		return nil, fmt.Errorf("unknown destination %q", dest)
	}

	if err := m.checkCoverage(record, spec); err != nil {
		return nil, err
	}

	payload := models.ServicePayload{}

	for _, fm := range spec.Mappings {
		value, present := record[fm.Source]
		if !present {
			if sentinel, hasSentinel := spec.BlankValues[fm.Source]; hasSentinel {
				payload[fm.Target] = sentinel
			}
			continue
		}

		mapped, keep, err := m.applyMapping(ctx, spec, fm, value)
		if err != nil {
			return nil, err
		}
		if keep {
			payload[fm.Target] = mapped
		}
	}

	// The title and the admin/draft flags are always present, whatever the
	// form supplied
	payload[spec.NameField] = record.String(models.KeyJobTitle)
	for k, v := range spec.Inject {
		payload[k] = v
	}

	return payload, nil
}

// applyMapping resolves lookups and applies cardinality for one field.
func (m *Mapper) applyMapping(ctx context.Context, spec *DestinationSpec, fm FieldMapping, value interface{}) (interface{}, bool, error) {
	if fm.Lookup != "" {
		values := toStrings(value)
		resolved := make([]string, 0, len(values))
		for _, text := range values {
			id, found, err := m.options.Resolve(ctx, fm.Lookup, text)
			if err != nil {
				return nil, false, err
			}
			if !found {
				// Forwarding the raw text would be rejected by the
				// destination schema; drop it loudly instead
				if m.strict {
					return nil, false, apperrors.LocalValidationError(fm.Source,
						fmt.Sprintf("no %s option mapping for %q", fm.Lookup, text))
				}
				logger.Warn("Dropping unmapped option value",
					zap.String("destination", string(spec.Destination)),
					zap.String("field", fm.Source),
					zap.String("table", fm.Lookup),
					zap.String("value", text))
				continue
			}
			resolved = append(resolved, id)
		}
		if len(resolved) == 0 {
			return nil, false, nil
		}
		return applyCardinality(resolved, fm.Cardinality), true, nil
	}

	if fm.Stringify {
		if f, ok := value.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true, nil
		}
	}

	if vals := asMulti(value); vals != nil {
		return applyCardinality(vals, fm.Cardinality), true, nil
	}

	return value, true, nil
}

// checkCoverage enforces the allow-list: every record key must be mapped or
// explicitly ignored for this destination.
func (m *Mapper) checkCoverage(record models.RawFormRecord, spec *DestinationSpec) error {
	covered := make(map[string]bool, len(spec.Mappings)+len(spec.Ignore))
	for _, fm := range spec.Mappings {
		covered[fm.Source] = true
	}
	for _, key := range spec.Ignore {
		covered[key] = true
	}
	covered[models.KeyJobTitle] = true // injected via NameField

	var unmapped []string
	for key := range record {
		if !covered[key] {
			unmapped = append(unmapped, key)
		}
	}
	if len(unmapped) == 0 {
		return nil
	}
	sort.Strings(unmapped)

	if m.strict {
		return apperrors.LocalValidationError("fields",
			fmt.Sprintf("no %s mapping for keys: %s", spec.Destination, strings.Join(unmapped, ", ")))
	}
	logger.Warn("Record keys without destination mapping",
		zap.String("destination", string(spec.Destination)),
		zap.Strings("keys", unmapped))
	return nil
}

func applyCardinality(values []string, c Cardinality) interface{} {
	switch c {
	case CardinalityArray:
		return values
	case CardinalityJoined:
		return strings.Join(values, ", ")
	case CardinalityFirst:
		return values[0]
	default:
		return values[0]
	}
}

// asMulti returns the value as a string slice when it is multi-valued.
func asMulti(value interface{}) []string {
	if vals, ok := value.([]string); ok {
		return vals
	}
	return nil
}

// toStrings flattens a scalar-or-array value for lookup resolution.
func toStrings(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}
