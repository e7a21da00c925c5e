// Package ferrors provides structured error handling for the search engine
// core. Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: index lifecycle errors (create/delete/unknown index)
//   - 2XX: ingest / mapping errors
//   - 3XX: query errors
//   - 4XX: aggregation errors
//   - 5XX: shard / snapshot errors
//   - 6XX: resource errors
package ferrors

// Category defines error categories for classification.
type Category string

const (
	CategoryIndex       Category = "INDEX"
	CategoryIngest      Category = "INGEST"
	CategoryQuery       Category = "QUERY"
	CategoryAggregation Category = "AGGREGATION"
	CategoryShard       Category = "SHARD"
	CategoryResource    Category = "RESOURCE"
	CategoryInternal    Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error; the caller must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the index remains usable.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing with partial results.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category. These map 1:1 onto the error taxonomy
// in the specification (MalformedQuery, UnknownField, TypeMismatch,
// UnknownIndex, DegradedResponse, SnapshotIntegrity, ResourceExhausted).
const (
	// Index lifecycle errors (100-199)
	ErrCodeIndexAlreadyExists = "ERR_101_INDEX_ALREADY_EXISTS"
	ErrCodeUnknownIndex       = "ERR_102_UNKNOWN_INDEX"

	// Ingest / mapping errors (200-299)
	ErrCodeUnknownField  = "ERR_201_UNKNOWN_FIELD"
	ErrCodeTypeMismatch  = "ERR_202_TYPE_MISMATCH"
	ErrCodeFieldConflict = "ERR_203_FIELD_CONFLICT"

	// Query errors (300-399)
	ErrCodeMalformedQuery   = "ERR_301_MALFORMED_QUERY"
	ErrCodeInvalidFuzziness = "ERR_302_INVALID_FUZZINESS"
	ErrCodeQueryCancelled   = "ERR_303_QUERY_CANCELLED"

	// Aggregation errors (400-499)
	ErrCodeInvalidAggregationField = "ERR_401_INVALID_AGGREGATION_FIELD"

	// Shard / snapshot errors (500-599)
	ErrCodeDegradedResponse  = "ERR_501_DEGRADED_RESPONSE"
	ErrCodeSnapshotIntegrity = "ERR_502_SNAPSHOT_INTEGRITY"
	ErrCodeSnapshotNotFound  = "ERR_503_SNAPSHOT_NOT_FOUND"

	// Resource errors (600-699)
	ErrCodeResourceExhausted = "ERR_601_RESOURCE_EXHAUSTED"

	// Internal errors (900-999)
	ErrCodeInternal = "ERR_901_INTERNAL"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	numStr := code[4:7]
	switch numStr[0] {
	case '1':
		return CategoryIndex
	case '2':
		return CategoryIngest
	case '3':
		return CategoryQuery
	case '4':
		return CategoryAggregation
	case '5':
		return CategoryShard
	case '6':
		return CategoryResource
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSnapshotIntegrity, ErrCodeResourceExhausted:
		return SeverityFatal
	case ErrCodeDegradedResponse:
		return SeverityWarning
	default:
		return SeverityError
	}
}
