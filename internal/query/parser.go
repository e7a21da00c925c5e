package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ftsengine/ftsengine/internal/ferrors"
)

// Parse converts a declarative query object (decoded JSON: map[string]any,
// []any, string, float64, bool, nil) into a QueryTree, per spec.md §4.5/§6.
func Parse(raw any) (Node, error) {
	switch v := raw.(type) {
	case string:
		return parsePlainString(v), nil
	case map[string]any:
		return parseNode(v)
	default:
		return nil, ferrors.MalformedQuery(fmt.Sprintf("expected a query object, got %T", raw))
	}
}

// parsePlainString implements spec.md §4.5: "a plain string query with
// whitespace → Match{field:*, value:string}".
func parsePlainString(s string) Node {
	return Match{Field: "*", Value: s, Operator: OperatorAnd}
}

var leafKeys = map[string]struct{}{
	"match_all": {}, "term": {}, "match": {}, "prefix": {}, "wildcard": {},
	"fuzzy": {}, "range": {}, "match_phrase": {}, "geo_distance": {}, "bool": {},
}

func parseNode(raw map[string]any) (Node, error) {
	var key string
	count := 0
	for k := range raw {
		if _, ok := leafKeys[k]; !ok {
			return nil, ferrors.MalformedQuery(fmt.Sprintf("unknown query key %q", k))
		}
		key = k
		count++
	}
	if count != 1 {
		return nil, ferrors.MalformedQuery(fmt.Sprintf("query node must have exactly one key, got %d", count))
	}

	body := raw[key]
	switch key {
	case "match_all":
		return parseMatchAll(body)
	case "term":
		return parseTermLike(body, "term", 0)
	case "match":
		return parseMatch(body)
	case "prefix":
		return parsePrefix(body)
	case "wildcard":
		return parseWildcard(body)
	case "fuzzy":
		return parseTermLike(body, "fuzzy", 1)
	case "range":
		return parseRange(body)
	case "match_phrase":
		return parsePhrase(body)
	case "geo_distance":
		return parseGeoDistance(body)
	case "bool":
		return parseBool(body)
	default:
		return nil, ferrors.MalformedQuery("unreachable query key " + key)
	}
}

func parseMatchAll(body any) (Node, error) {
	boost := 1.0
	if body != nil {
		m, ok := body.(map[string]any)
		if !ok {
			return nil, ferrors.MalformedQuery("match_all body must be an object")
		}
		if b, ok := m["boost"]; ok {
			f, ok := toFloat(b)
			if !ok {
				return nil, ferrors.MalformedQuery("match_all.boost must be numeric")
			}
			boost = f
		}
	}
	return MatchAll{Boost: boost}, nil
}

// normalizeFieldBody unifies the two accepted leaf shapes: object-level
// {field, value, ...attrs} and field-keyed {<field>: value | {...attrs}}.
func normalizeFieldBody(raw any, nodeName string) (field string, attrs map[string]any, err error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", nil, ferrors.MalformedQuery(nodeName + " body must be an object")
	}

	if f, ok := m["field"]; ok {
		fieldName, ok := f.(string)
		if !ok || fieldName == "" {
			return "", nil, ferrors.MalformedQuery(nodeName + ".field must be a non-empty string")
		}
		attrs := make(map[string]any, len(m))
		for k, v := range m {
			if k == "field" {
				continue
			}
			attrs[k] = v
		}
		return fieldName, attrs, nil
	}

	if len(m) != 1 {
		return "", nil, ferrors.MalformedQuery(nodeName + " must have exactly one field key or an explicit \"field\" attribute")
	}
	for k, v := range m {
		field = k
		if inner, ok := v.(map[string]any); ok {
			return field, inner, nil
		}
		return field, map[string]any{"value": v}, nil
	}
	return "", nil, ferrors.MalformedQuery(nodeName + " body must not be empty")
}

func parseTermLike(body any, nodeName string, defaultFuzziness int) (Node, error) {
	field, attrs, err := normalizeFieldBody(body, nodeName)
	if err != nil {
		return nil, err
	}

	value, ok := toStringValue(attrs["value"])
	if !ok {
		return nil, ferrors.MalformedQuery(nodeName + "." + field + " requires a value")
	}

	fuzziness := defaultFuzziness
	if raw, present := attrs["fuzziness"]; present {
		fuzziness, err = parseFuzziness(raw)
		if err != nil {
			return nil, err
		}
	}

	if nodeName == "fuzzy" {
		return Fuzzy{Field: field, Value: value, Fuzziness: fuzziness}, nil
	}
	return Term{Field: field, Value: value, Fuzziness: fuzziness}, nil
}

func parseMatch(body any) (Node, error) {
	field, attrs, err := normalizeFieldBody(body, "match")
	if err != nil {
		return nil, err
	}

	value, ok := toStringValue(attrs["value"])
	if !ok {
		return nil, ferrors.MalformedQuery("match." + field + " requires a value")
	}

	fuzziness := 0
	if raw, present := attrs["fuzziness"]; present {
		fuzziness, err = parseFuzziness(raw)
		if err != nil {
			return nil, err
		}
	}

	operator := OperatorAnd
	if raw, present := attrs["operator"]; present {
		op, ok := raw.(string)
		if !ok {
			return nil, ferrors.MalformedQuery("match.operator must be a string")
		}
		switch strings.ToLower(op) {
		case "and":
			operator = OperatorAnd
		case "or":
			operator = OperatorOr
		default:
			return nil, ferrors.MalformedQuery("match.operator must be \"and\" or \"or\"")
		}
	}

	return Match{Field: field, Value: value, Fuzziness: fuzziness, Operator: operator}, nil
}

func parsePrefix(body any) (Node, error) {
	field, attrs, err := normalizeFieldBody(body, "prefix")
	if err != nil {
		return nil, err
	}
	value, ok := toStringValue(attrs["value"])
	if !ok {
		return nil, ferrors.MalformedQuery("prefix." + field + " requires a value")
	}
	return Prefix{Field: field, Value: value}, nil
}

func parseWildcard(body any) (Node, error) {
	field, attrs, err := normalizeFieldBody(body, "wildcard")
	if err != nil {
		return nil, err
	}
	value, ok := toStringValue(attrs["value"])
	if !ok {
		return nil, ferrors.MalformedQuery("wildcard." + field + " requires a value")
	}
	return Wildcard{Field: field, Value: value}, nil
}

func parseFuzziness(raw any) (int, error) {
	f, ok := toFloat(raw)
	if !ok {
		return 0, ferrors.MalformedQuery("fuzziness must be numeric")
	}
	n := int(f)
	if n < 0 || n > 2 {
		return 0, ferrors.InvalidFuzziness(n)
	}
	return n, nil
}

func parseRange(body any) (Node, error) {
	field, attrs, err := normalizeFieldBody(body, "range")
	if err != nil {
		return nil, err
	}

	r := Range{Field: field}
	setNumeric := func(key string, dst **float64, strDst **string) error {
		raw, present := attrs[key]
		if !present {
			return nil
		}
		if f, ok := toFloat(raw); ok {
			*dst = &f
			return nil
		}
		if s, ok := raw.(string); ok {
			*strDst = &s
			return nil
		}
		return ferrors.MalformedQuery("range." + field + "." + key + " must be numeric or string")
	}

	if err := setNumeric("gte", &r.Gte, &r.GteStr); err != nil {
		return nil, err
	}
	if err := setNumeric("gt", &r.Gt, &r.GtStr); err != nil {
		return nil, err
	}
	if err := setNumeric("lte", &r.Lte, &r.LteStr); err != nil {
		return nil, err
	}
	if err := setNumeric("lt", &r.Lt, &r.LtStr); err != nil {
		return nil, err
	}
	return r, nil
}

func parsePhrase(body any) (Node, error) {
	field, attrs, err := normalizeFieldBody(body, "match_phrase")
	if err != nil {
		return nil, err
	}

	queryText, ok := toStringValue(attrs["query"])
	if !ok {
		value, okValue := toStringValue(attrs["value"])
		if !okValue {
			return nil, ferrors.MalformedQuery("match_phrase." + field + " requires a query string")
		}
		queryText = value
	}

	slop := 0
	if raw, present := attrs["slop"]; present {
		f, ok := toFloat(raw)
		if !ok {
			return nil, ferrors.MalformedQuery("match_phrase.slop must be numeric")
		}
		slop = int(f)
	}

	fuzziness := 0
	if raw, present := attrs["fuzziness"]; present {
		fuzziness, err = parseFuzziness(raw)
		if err != nil {
			return nil, err
		}
	}

	return Phrase{Field: field, QueryText: queryText, Slop: slop, Fuzziness: fuzziness}, nil
}

func parseGeoDistance(body any) (Node, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return nil, ferrors.MalformedQuery("geo_distance body must be an object")
	}

	fieldRaw, ok := m["field"]
	field, fieldOk := fieldRaw.(string)
	if !ok || !fieldOk || field == "" {
		return nil, ferrors.MalformedQuery("geo_distance.field must be a non-empty string")
	}

	distanceRaw, ok := m["distance"]
	if !ok {
		return nil, ferrors.MalformedQuery("geo_distance.distance is required")
	}
	distanceMeters, err := parseDistance(distanceRaw)
	if err != nil {
		return nil, err
	}

	var lat, lon float64
	if center, ok := m["center"]; ok {
		lat, lon, err = parseCenter(center)
	} else if point, ok := m[field]; ok {
		lat, lon, err = parseCenter(point)
	} else {
		return nil, ferrors.MalformedQuery("geo_distance requires a \"center\" or \"" + field + "\" coordinate")
	}
	if err != nil {
		return nil, err
	}

	return GeoDistance{Field: field, CenterLat: lat, CenterLon: lon, DistanceMeters: distanceMeters}, nil
}

func parseCenter(raw any) (lat, lon float64, err error) {
	switch v := raw.(type) {
	case map[string]any:
		latRaw, latOk := v["lat"]
		lonRaw, lonOk := v["lon"]
		if !latOk || !lonOk {
			return 0, 0, ferrors.MalformedQuery("geo_distance center requires lat and lon")
		}
		lat, ok1 := toFloat(latRaw)
		lon2, ok2 := toFloat(lonRaw)
		if !ok1 || !ok2 {
			return 0, 0, ferrors.MalformedQuery("geo_distance center lat/lon must be numeric")
		}
		return lat, lon2, nil
	case []any:
		if len(v) != 2 {
			return 0, 0, ferrors.MalformedQuery("geo_distance center array must have 2 elements")
		}
		a, ok1 := toFloat(v[0])
		b, ok2 := toFloat(v[1])
		if !ok1 || !ok2 {
			return 0, 0, ferrors.MalformedQuery("geo_distance center array must be numeric")
		}
		// [lat,lon] vs [lon,lat] ambiguity is resolved by internal/geo at
		// execution time using value-range heuristics; carry as-is.
		return a, b, nil
	default:
		return 0, 0, ferrors.MalformedQuery("geo_distance center must be an object or 2-element array")
	}
}

func parseDistance(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v * 1000, nil
	case int:
		return float64(v) * 1000, nil
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		switch {
		case strings.HasSuffix(s, "km"):
			n, err := strconv.ParseFloat(strings.TrimSuffix(s, "km"), 64)
			if err != nil {
				return 0, ferrors.MalformedQuery("geo_distance.distance is not a valid number")
			}
			return n * 1000, nil
		case strings.HasSuffix(s, "m"):
			n, err := strconv.ParseFloat(strings.TrimSuffix(s, "m"), 64)
			if err != nil {
				return 0, ferrors.MalformedQuery("geo_distance.distance is not a valid number")
			}
			return n, nil
		default:
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, ferrors.MalformedQuery("geo_distance.distance must have a km/m suffix or be numeric")
			}
			return n * 1000, nil
		}
	default:
		return 0, ferrors.MalformedQuery("geo_distance.distance must be numeric or string")
	}
}

func parseBool(body any) (Node, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return nil, ferrors.MalformedQuery("bool body must be an object")
	}

	b := Bool{}
	var err error

	if raw, present := m["must"]; present {
		if b.Must, err = parseNodeArray(raw, "bool.must"); err != nil {
			return nil, err
		}
	}
	if raw, present := m["filter"]; present {
		if b.Filter, err = parseNodeArray(raw, "bool.filter"); err != nil {
			return nil, err
		}
	}
	if raw, present := m["must_not"]; present {
		if b.MustNot, err = parseNodeArray(raw, "bool.must_not"); err != nil {
			return nil, err
		}
	}
	if raw, present := m["should"]; present {
		b.ShouldPresent = true
		if b.Should, err = parseNodeArray(raw, "bool.should"); err != nil {
			return nil, err
		}
	}
	if raw, present := m["minimum_should_match"]; present {
		f, ok := toFloat(raw)
		if !ok {
			return nil, ferrors.MalformedQuery("bool.minimum_should_match must be numeric")
		}
		b.MinimumShouldMatch = int(f)
	}

	for k := range m {
		switch k {
		case "must", "filter", "must_not", "should", "minimum_should_match":
		default:
			return nil, ferrors.MalformedQuery("unknown bool key " + k)
		}
	}

	return b, nil
}

// parseNodeArray accepts both a singleton node object and an array of node
// objects, per spec.md §4.5: "Arrays accepted where singletons valid".
func parseNodeArray(raw any, context string) ([]Node, error) {
	switch v := raw.(type) {
	case []any:
		nodes := make([]Node, 0, len(v))
		for _, item := range v {
			n, err := Parse(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		return nodes, nil
	case map[string]any:
		n, err := Parse(v)
		if err != nil {
			return nil, err
		}
		return []Node{n}, nil
	default:
		return nil, ferrors.MalformedQuery(context + " must be a query object or array of query objects")
	}
}

func toStringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
