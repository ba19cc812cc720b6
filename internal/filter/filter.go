package filter

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Tarachineno/standard-checker/internal/standards"
)

// Condition is one (field, operator, value) predicate. Conditions on a
// Filter are combined with logical AND.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
	Label    string
}

// Accessor extracts a field value from a record. The second return reports
// whether the field is known at all; a nil value with ok=true still counts
// as absent during evaluation.
type Accessor func(standards.Record) (any, bool)

// Predicate is the custom-filter escape hatch: an arbitrary record test
// applied alongside the condition list. It is deliberately not an Operator.
type Predicate func(standards.Record) bool

// Filter evaluates an ordered condition list against record sets.
type Filter struct {
	conditions []Condition
	accessors  map[string]Accessor
	logger     *log.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger for evaluation warnings and failures.
func WithLogger(logger *log.Logger) Option {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a filter with the default record field accessors registered.
func New(opts ...Option) *Filter {
	f := &Filter{
		accessors: defaultAccessors(),
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func defaultAccessors() map[string]Accessor {
	return map[string]Accessor{
		"id":           func(r standards.Record) (any, bool) { return r.ID, true },
		"number":       func(r standards.Record) (any, bool) { return r.Number, true },
		"type":         func(r standards.Record) (any, bool) { return string(r.Family), true },
		"number_part":  func(r standards.Record) (any, bool) { return r.NumberBody, true },
		"version":      func(r standards.Record) (any, bool) { return deref(r.Year), true },
		"status":       func(r standards.Record) (any, bool) { return r.Status, true },
		"directive":    func(r standards.Record) (any, bool) { return deref(r.Directive), true },
		"extracted_at": func(r standards.Record) (any, bool) { return r.ExtractedAt, true },
		"last_updated": func(r standards.Record) (any, bool) { return r.LastUpdated, true },
		"source":       func(r standards.Record) (any, bool) { return r.Source, true },
		"notes":        func(r standards.Record) (any, bool) { return r.Notes, true },
		"etsi_info": func(r standards.Record) (any, bool) {
			if r.RemoteInfo == nil {
				return nil, true
			}
			return r.RemoteInfo, true
		},
	}
}

func deref(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// RegisterAccessor makes an additional field name filterable. The filterable
// field set is open-ended via registration instead of reflection.
func (f *Filter) RegisterAccessor(field string, acc Accessor) *Filter {
	f.accessors[field] = acc
	return f
}

// FieldValue resolves a field on a record using the default accessor set.
func FieldValue(r standards.Record, field string) (any, bool) {
	acc, ok := defaultAccessors()[field]
	if !ok {
		return nil, false
	}
	return acc(r)
}

// Add appends a condition with an auto-generated label.
func (f *Filter) Add(field string, op Operator, value any) *Filter {
	return f.AddCondition(Condition{Field: field, Operator: op, Value: value})
}

// AddCondition appends a fully specified condition.
func (f *Filter) AddCondition(c Condition) *Filter {
	if c.Label == "" {
		c.Label = fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
	}
	f.conditions = append(f.conditions, c)
	return f
}

// Clear removes all conditions.
func (f *Filter) Clear() *Filter {
	f.conditions = nil
	return f
}

// Conditions returns a copy of the current condition list.
func (f *Filter) Conditions() []Condition {
	out := make([]Condition, len(f.conditions))
	copy(out, f.conditions)
	return out
}

// Apply evaluates every condition against every record and returns the
// records that satisfy all of them, preserving input order. With no
// conditions the input is returned unchanged.
func (f *Filter) Apply(records []standards.Record) []standards.Record {
	if len(f.conditions) == 0 {
		return records
	}

	filtered := make([]standards.Record, 0, len(records))
	for _, rec := range records {
		if f.matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	f.logger.Printf("filter applied: %d -> %d record(s)", len(records), len(filtered))
	return filtered
}

// ApplyWith behaves like Apply and additionally requires the custom
// predicate to hold. A nil predicate is ignored.
func (f *Filter) ApplyWith(records []standards.Record, pred Predicate) []standards.Record {
	out := f.Apply(records)
	if pred == nil {
		return out
	}
	filtered := make([]standards.Record, 0, len(out))
	for _, rec := range out {
		if pred(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func (f *Filter) matches(rec standards.Record) bool {
	for _, cond := range f.conditions {
		if !f.evaluate(rec, cond) {
			return false
		}
	}
	return true
}

// evaluate applies one condition to one record. The error policy is
// asymmetric on purpose: an evaluation failure excludes the record
// (fail-closed), while an unrecognized operator lets it pass (fail-open).
func (f *Filter) evaluate(rec standards.Record, cond Condition) bool {
	acc, known := f.accessors[cond.Field]
	var value any
	if known {
		value, known = acc(rec)
	}
	if !known || isNil(value) {
		// An absent value satisfies only IN with nil among the accepted
		// values; every other operator fails without raising.
		if cond.Operator != In {
			return false
		}
		members, ok := anySlice(cond.Value)
		if !ok {
			return false
		}
		for _, m := range members {
			if isNil(m) {
				return true
			}
		}
		return false
	}

	switch cond.Operator {
	case Equals:
		return strings.EqualFold(text(value), text(cond.Value))
	case Contains:
		return strings.Contains(lower(value), lower(cond.Value))
	case StartsWith:
		return strings.HasPrefix(lower(value), lower(cond.Value))
	case EndsWith:
		return strings.HasSuffix(lower(value), lower(cond.Value))
	case GreaterThan:
		return compareValues(value, cond.Value) > 0
	case LessThan:
		return compareValues(value, cond.Value) < 0
	case Between:
		bounds, ok := anySlice(cond.Value)
		if !ok {
			f.logger.Printf("filter evaluation error on %q: between needs a bounds list, got %T", cond.Label, cond.Value)
			return false
		}
		if len(bounds) != 2 {
			return false
		}
		return compareValues(value, bounds[0]) >= 0 && compareValues(value, bounds[1]) <= 0
	case In:
		members, ok := anySlice(cond.Value)
		if !ok {
			f.logger.Printf("filter evaluation error on %q: in needs a value list, got %T", cond.Label, cond.Value)
			return false
		}
		return contains(members, value)
	case NotIn:
		members, ok := anySlice(cond.Value)
		if !ok {
			f.logger.Printf("filter evaluation error on %q: not_in needs a value list, got %T", cond.Label, cond.Value)
			return false
		}
		return !contains(members, value)
	case Regex:
		re, err := regexp.Compile("(?i)" + text(cond.Value))
		if err != nil {
			f.logger.Printf("filter evaluation error on %q: %v", cond.Label, err)
			return false
		}
		return re.MatchString(text(value))
	default:
		f.logger.Printf("warning: unknown filter operator %s, condition %q passes", cond.Operator, cond.Label)
		return true
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	if p, ok := v.(*string); ok {
		return p == nil
	}
	return false
}

func text(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	default:
		return fmt.Sprint(v)
	}
}

func lower(v any) string {
	return strings.ToLower(text(v))
}

func anySlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// contains tests set membership with coerced, case-sensitive equality.
// Nil members never match a present value; they are meaningful only for the
// absent-value path handled before operator dispatch.
func contains(members []any, value any) bool {
	for _, m := range members {
		if isNil(m) {
			continue
		}
		if text(m) == text(value) {
			return true
		}
	}
	return false
}

// datePatterns are the recognized date-string shapes, checked as prefixes in
// order: plain date, ISO with time, US slashes, European dots.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`),
}

// dateFormats is the ordered parse list tried against a date-shaped string.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"01/02/2006",
	"02.01.2006",
	"2006/01/02",
}

func isDateString(s string) bool {
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// parseDate parses with the first matching format. A string that matches no
// format parses to the earliest possible instant instead of failing, so
// malformed dates sort first rather than erroring.
func parseDate(s string) time.Time {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// compareValues orders two operands type-aware: as instants when both look
// like dates, numerically when both parse as numbers, else as
// case-insensitive strings.
func compareValues(a, b any) int {
	as, bs := text(a), text(b)

	if isDateString(as) && isDateString(bs) {
		ta, tb := parseDate(as), parseDate(bs)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		default:
			return 0
		}
	}

	fa, errA := strconv.ParseFloat(strings.TrimSpace(as), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(bs), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
}
