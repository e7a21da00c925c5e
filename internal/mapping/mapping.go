// Package mapping owns the field-name to field-type registry, per spec.md
// §4.2: auto-detection on first sight, immutability thereafter, and
// type-checking at ingest time.
package mapping

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ftsengine/ftsengine/internal/analysis"
	"github.com/ftsengine/ftsengine/internal/ferrors"
)

// FieldType is the tagged variant of a field's declared semantic type.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldKeyword  FieldType = "keyword"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldGeoPoint FieldType = "geo_point"
	FieldEmail    FieldType = "email"
	FieldUrl      FieldType = "url"
	FieldPhone    FieldType = "phone"
	FieldObject   FieldType = "object"
)

// NumberKind further refines FieldNumber fields.
type NumberKind string

const (
	NumberInt    NumberKind = "int"
	NumberFloat  NumberKind = "float"
	NumberLong   NumberKind = "long"
	NumberShort  NumberKind = "short"
	NumberByte   NumberKind = "byte"
	NumberDouble NumberKind = "double"
)

// FieldDef is one field's full type registration.
type FieldDef struct {
	Type       FieldType
	NumberKind NumberKind // only meaningful when Type == FieldNumber
}

// textHintFields are field-name substrings that bias auto-mapping
// toward Text even when the value alone would not suggest it.
var textHintFields = map[string]struct{}{
	"title": {}, "description": {}, "body": {}, "content": {}, "text": {}, "summary": {},
}

// keywordHintFields bias auto-mapping toward Keyword.
var keywordHintFields = map[string]struct{}{
	"id": {}, "status": {}, "category": {}, "type": {}, "tag": {}, "tags": {},
	"name": {}, "code": {}, "genre": {}, "genres": {},
}

// Mappings is a single-writer, many-reader registry of FieldName ->
// FieldType. Registration is exclusive; reads are lock-free after a field
// stabilizes (callers are expected to hold Mappings for the lifetime of an
// index and synchronize externally per spec.md §5).
type Mappings struct {
	fields map[string]FieldDef
}

// New creates an empty Mappings registry.
func New() *Mappings {
	return &Mappings{fields: make(map[string]FieldDef)}
}

// Register adds an explicit field->type mapping. Returns FieldConflict if
// the field is already mapped to a different type.
func (m *Mappings) Register(field string, def FieldDef) error {
	if existing, ok := m.fields[field]; ok {
		if existing.Type != def.Type {
			return ferrors.FieldConflict(field, string(existing.Type), string(def.Type))
		}
		return nil
	}
	m.fields[field] = def
	return nil
}

// TypeOf returns the registered type for field, or ("", false) if unmapped.
func (m *Mappings) TypeOf(field string) (FieldDef, bool) {
	def, ok := m.fields[field]
	return def, ok
}

// Fields returns all currently mapped field names.
func (m *Mappings) Fields() []string {
	names := make([]string, 0, len(m.fields))
	for name := range m.fields {
		names = append(names, name)
	}
	return names
}

// Count returns the number of mapped fields.
func (m *Mappings) Count() int {
	return len(m.fields)
}

// TextLikeFields returns every mapped field whose type participates in
// wildcard-field (`*`) fan-out, per spec.md §4.6.
func (m *Mappings) TextLikeFields() []string {
	var fields []string
	for name, def := range m.fields {
		if IsTextLike(def.Type) {
			fields = append(fields, name)
		}
	}
	return fields
}

// IsTextLike reports whether t is eligible for `*`-field fan-out on
// Prefix/Term/Match queries: Text and the string-token field types.
func IsTextLike(t FieldType) bool {
	switch t {
	case FieldText, FieldKeyword, FieldEmail, FieldUrl, FieldPhone:
		return true
	default:
		return false
	}
}

// IsFacetable reports whether t may be used as an aggregation field, per
// spec.md §4.9: Text fields are rejected with InvalidAggregationField.
func IsFacetable(t FieldType) bool {
	switch t {
	case FieldKeyword, FieldNumber, FieldDate, FieldBoolean:
		return true
	default:
		return false
	}
}

// AnalyzerFor returns the Analyzer implementation for field's registered
// type, selecting the variant per spec.md §4.1.
func (m *Mappings) AnalyzerFor(field string, stopWords []string) analysis.Analyzer {
	def, ok := m.fields[field]
	if !ok {
		return analysis.NewStandardAnalyzer(stopWords)
	}
	switch def.Type {
	case FieldKeyword:
		return analysis.KeywordAnalyzer{}
	case FieldEmail:
		return analysis.EmailAnalyzer{}
	case FieldUrl:
		return analysis.UrlAnalyzer{}
	case FieldPhone:
		return analysis.PhoneAnalyzer{}
	default:
		return analysis.NewStandardAnalyzer(stopWords)
	}
}

// AutoMap infers and registers types for every field present in fields that
// is not already mapped, using the value-based and name-hint rules from
// spec.md §4.2. Object-valued fields recurse with dotted-path keys.
func (m *Mappings) AutoMap(fields map[string]any) error {
	return m.autoMapPrefixed("", fields)
}

func (m *Mappings) autoMapPrefixed(prefix string, fields map[string]any) error {
	for name, value := range fields {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}

		if nested, ok := value.(map[string]any); ok {
			if err := m.Register(full, FieldDef{Type: FieldObject}); err != nil {
				return err
			}
			if err := m.autoMapPrefixed(full, nested); err != nil {
				return err
			}
			continue
		}

		if _, ok := m.fields[full]; ok {
			continue
		}

		def := inferType(full, value)
		if err := m.Register(full, def); err != nil {
			return err
		}
	}
	return nil
}

// Validate type-checks doc's field values against the registry, failing
// with TypeMismatch on the first incompatible scalar.
func (m *Mappings) Validate(fields map[string]any) error {
	return m.validatePrefixed("", fields)
}

func (m *Mappings) validatePrefixed(prefix string, fields map[string]any) error {
	for name, value := range fields {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}

		if nested, ok := value.(map[string]any); ok {
			if err := m.validatePrefixed(full, nested); err != nil {
				return err
			}
			continue
		}

		def, ok := m.fields[full]
		if !ok {
			continue
		}
		if !typeMatches(def.Type, value) {
			return ferrors.TypeMismatch(full, string(def.Type), fmt.Sprintf("%T", value))
		}
	}
	return nil
}

var (
	emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRegex = regexp.MustCompile(`^[+\d][\d\s().-]{6,}$`)
)

// inferType applies the auto-mapping rules of spec.md §4.2: name hints
// first, then value-based inference.
func inferType(field string, value any) FieldDef {
	base := lastSegment(field)
	if _, ok := textHintFields[strings.ToLower(base)]; ok {
		return FieldDef{Type: FieldText}
	}
	if _, ok := keywordHintFields[strings.ToLower(base)]; ok {
		return FieldDef{Type: FieldKeyword}
	}

	switch v := value.(type) {
	case bool:
		return FieldDef{Type: FieldBoolean}
	case float64:
		return FieldDef{Type: FieldNumber, NumberKind: NumberDouble}
	case float32:
		return FieldDef{Type: FieldNumber, NumberKind: NumberFloat}
	case int, int32:
		return FieldDef{Type: FieldNumber, NumberKind: NumberInt}
	case int64:
		return FieldDef{Type: FieldNumber, NumberKind: NumberLong}
	case time.Time:
		return FieldDef{Type: FieldDate}
	case map[string]float64:
		if _, okLat := v["lat"]; okLat {
			return FieldDef{Type: FieldGeoPoint}
		}
	case []any:
		if len(v) == 2 {
			if _, ok0 := toFloat(v[0]); ok0 {
				if _, ok1 := toFloat(v[1]); ok1 {
					return FieldDef{Type: FieldGeoPoint}
				}
			}
		}
	case string:
		return inferStringType(v)
	}

	return FieldDef{Type: FieldText}
}

func inferStringType(v string) FieldDef {
	if emailRegex.MatchString(v) {
		return FieldDef{Type: FieldEmail}
	}
	if u, err := url.ParseRequestURI(v); err == nil && u.Scheme != "" && u.Host != "" {
		return FieldDef{Type: FieldUrl}
	}
	if digitsOnlyCount(v) >= 7 && phoneRegex.MatchString(v) {
		return FieldDef{Type: FieldPhone}
	}
	if _, err := time.Parse(time.RFC3339, v); err == nil {
		return FieldDef{Type: FieldDate}
	}
	return FieldDef{Type: FieldText}
}

func digitsOnlyCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func typeMatches(t FieldType, value any) bool {
	switch t {
	case FieldBoolean:
		_, ok := value.(bool)
		return ok
	case FieldNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case FieldDate:
		switch value.(type) {
		case time.Time, string:
			return true
		}
		return false
	case FieldGeoPoint:
		switch value.(type) {
		case map[string]float64, map[string]any, []any, []float64:
			return true
		}
		return false
	default: // Text, Keyword, Email, Url, Phone, Object
		_, ok := value.(string)
		return ok || t == FieldObject
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
