package exec

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ftsengine/ftsengine/internal/docset"
	"github.com/ftsengine/ftsengine/internal/ferrors"
	"github.com/ftsengine/ftsengine/internal/geo"
	"github.com/ftsengine/ftsengine/internal/query"
)

// ScoringTerm is one (field, term) pair that the Scorer sums idf·tf
// contributions over for a matching document.
type ScoringTerm struct {
	Field string
	Term  string
}

// Result is a QueryTree evaluated into one shard's candidate set, plus
// everything the Scorer needs to turn it into per-doc scores.
type Result struct {
	Docs *docset.DocIdSet

	// ScoringTerms collects the (field, term) pairs of must/should clauses
	// (filter and must_not contribute zero, per spec.md §4.7). A pair can
	// appear more than once; Scorer.Score counts each pair once.
	ScoringTerms []ScoringTerm

	// ConstantBoost accumulates flat per-doc contributions from MatchAll
	// leaves — spec.md §4.7: "every doc gets a constant score=1.0 times
	// the query boost."
	ConstantBoost float64
}

func emptyResult() *Result {
	return &Result{Docs: docset.New()}
}

// Executor evaluates a QueryTree against one Corpus.
type Executor struct {
	corpus Corpus
}

// New creates an Executor borrowing corpus for the duration of one query.
func New(corpus Corpus) *Executor {
	return &Executor{corpus: corpus}
}

// Execute evaluates node, honoring ctx cancellation at leaf-set boundaries
// per spec.md §5: "after each term expansion, between posting-list merges,
// between candidate scoring chunks."
func (e *Executor) Execute(ctx context.Context, node query.Node) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.eval(ctx, node)
}

func (e *Executor) eval(ctx context.Context, node query.Node) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch n := node.(type) {
	case query.MatchAll:
		boost := n.Boost
		if boost == 0 {
			boost = 1.0
		}
		return &Result{Docs: e.corpus.AllDocIDs(), ConstantBoost: boost}, nil
	case query.Term:
		return e.evalTerm(n.Field, n.Value, n.Fuzziness)
	case query.Fuzzy:
		// The parser already applies the fuzziness=1 default when the
		// query omits it (§4.6); an explicit 0 here means exact match.
		return e.evalTerm(n.Field, n.Value, n.Fuzziness)
	case query.Match:
		return e.evalMatch(ctx, n)
	case query.Prefix:
		return e.evalPrefix(n)
	case query.Wildcard:
		return e.evalWildcard(n)
	case query.Range:
		return e.evalRange(n)
	case query.Phrase:
		return e.evalPhrase(n)
	case query.GeoDistance:
		return e.evalGeoDistance(n)
	case query.Bool:
		return e.evalBool(ctx, n)
	default:
		return nil, ferrors.MalformedQuery(fmt.Sprintf("unsupported query node %T", node))
	}
}

// resolveFields expands the wildcard field `*` into every text-like mapped
// field; any other field name is returned as a singleton.
func (e *Executor) resolveFields(field string) []string {
	if field != "*" {
		return []string{field}
	}
	return e.corpus.Mappings().TextLikeFields()
}

// canonicalTerm analyzes value with field's own analyzer and returns its
// single canonical token — used by Term/Fuzzy/Prefix for query-side
// normalization so index- and query-time terms agree.
func (e *Executor) canonicalTerm(field, value string) string {
	analyzer := e.corpus.Mappings().AnalyzerFor(field, e.corpus.StopWords())
	tokens := analyzer.Analyze(value)
	if len(tokens) == 0 {
		return strings.ToLower(value)
	}
	return tokens[0].Term
}

func (e *Executor) evalTerm(field, value string, fuzziness int) (*Result, error) {
	result := emptyResult()
	for _, f := range e.resolveFields(field) {
		canonical := e.canonicalTerm(f, value)

		candidateTerms := map[string]struct{}{canonical: {}}
		if syn := e.corpus.Synonyms(); syn != nil {
			for _, s := range syn.Expand(canonical) {
				candidateTerms[e.canonicalTerm(f, s)] = struct{}{}
			}
		}

		if fuzziness > 0 {
			for _, t := range e.corpus.TermsForField(f) {
				if query.WithinEditDistance(canonical, t, fuzziness) {
					candidateTerms[t] = struct{}{}
				}
			}
		}

		for t := range candidateTerms {
			p := e.corpus.Postings(f, t)
			if p == nil {
				continue
			}
			result.Docs.Or(p.Docs)
			result.ScoringTerms = append(result.ScoringTerms, ScoringTerm{Field: f, Term: t})
		}
	}
	return result, nil
}

func (e *Executor) evalMatch(ctx context.Context, n query.Match) (*Result, error) {
	fields := e.resolveFields(n.Field)
	result := emptyResult()
	first := true

	for _, f := range fields {
		analyzer := e.corpus.Mappings().AnalyzerFor(f, e.corpus.StopWords())
		tokens := analyzer.Analyze(n.Value)
		if len(tokens) == 0 {
			continue
		}

		var fieldSet *docset.DocIdSet
		var terms []ScoringTerm
		for i, tok := range tokens {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			termResult, err := e.evalTerm(f, tok.Term, n.Fuzziness)
			if err != nil {
				return nil, err
			}
			terms = append(terms, termResult.ScoringTerms...)

			if i == 0 {
				fieldSet = termResult.Docs
				continue
			}
			if n.Operator == query.OperatorOr {
				fieldSet.Or(termResult.Docs)
			} else {
				fieldSet.And(termResult.Docs)
			}
		}
		if fieldSet == nil {
			continue
		}

		result.ScoringTerms = append(result.ScoringTerms, terms...)
		if first {
			result.Docs = fieldSet
			first = false
		} else {
			result.Docs.Or(fieldSet)
		}
	}
	return result, nil
}

func (e *Executor) evalPrefix(n query.Prefix) (*Result, error) {
	result := emptyResult()
	for _, f := range e.resolveFields(n.Field) {
		prefix := e.canonicalTerm(f, n.Value)
		for _, t := range e.corpus.TermsForField(f) {
			if strings.HasPrefix(t, prefix) {
				p := e.corpus.Postings(f, t)
				if p == nil {
					continue
				}
				result.Docs.Or(p.Docs)
				result.ScoringTerms = append(result.ScoringTerms, ScoringTerm{Field: f, Term: t})
			}
		}
	}
	return result, nil
}

var wildcardSpecial = regexp.MustCompile(`[.+^$()\[\]{}|\\]`)

func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			s := string(r)
			if wildcardSpecial.MatchString(s) {
				b.WriteString(regexp.QuoteMeta(s))
			} else {
				b.WriteString(s)
			}
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func (e *Executor) evalWildcard(n query.Wildcard) (*Result, error) {
	result := emptyResult()
	for _, f := range e.resolveFields(n.Field) {
		pattern := strings.ToLower(n.Value)
		re, err := compileWildcard(pattern)
		if err != nil {
			return nil, ferrors.MalformedQuery("invalid wildcard pattern: " + n.Value)
		}
		for _, t := range e.corpus.TermsForField(f) {
			if re.MatchString(t) {
				p := e.corpus.Postings(f, t)
				if p == nil {
					continue
				}
				result.Docs.Or(p.Docs)
				result.ScoringTerms = append(result.ScoringTerms, ScoringTerm{Field: f, Term: t})
			}
		}
	}
	return result, nil
}

func (e *Executor) evalRange(n query.Range) (*Result, error) {
	result := emptyResult()
	for _, d := range e.corpus.AllDocs() {
		v, ok := d.Document.Fields[n.Field]
		if !ok {
			continue
		}
		if rangeMatches(n, v) {
			result.Docs.Add(d.InternalID)
		}
	}
	return result, nil
}

// rangeMatches compares v against n's bounds. Cross-type comparisons fail
// the predicate silently, per spec.md §4.6.
func rangeMatches(n query.Range, v any) bool {
	if f, ok := toComparableFloat(v); ok {
		if n.Gte != nil && !(f >= *n.Gte) {
			return false
		}
		if n.Gt != nil && !(f > *n.Gt) {
			return false
		}
		if n.Lte != nil && !(f <= *n.Lte) {
			return false
		}
		if n.Lt != nil && !(f < *n.Lt) {
			return false
		}
		return n.Gte != nil || n.Gt != nil || n.Lte != nil || n.Lt != nil
	}

	s, ok := v.(string)
	if !ok {
		return false
	}
	if n.GteStr != nil && !(s >= *n.GteStr) {
		return false
	}
	if n.GtStr != nil && !(s > *n.GtStr) {
		return false
	}
	if n.LteStr != nil && !(s <= *n.LteStr) {
		return false
	}
	if n.LtStr != nil && !(s < *n.LtStr) {
		return false
	}
	return n.GteStr != nil || n.GtStr != nil || n.LteStr != nil || n.LtStr != nil
}

func toComparableFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case time.Time:
		return float64(t.Unix()), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err == nil {
			return f, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return float64(parsed.Unix()), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func (e *Executor) evalPhrase(n query.Phrase) (*Result, error) {
	result := emptyResult()
	analyzer := e.corpus.Mappings().AnalyzerFor(n.Field, e.corpus.StopWords())
	tokens := analyzer.Analyze(n.QueryText)
	if len(tokens) == 0 {
		return result, nil
	}

	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}

	first := e.corpus.Postings(n.Field, terms[0])
	if first == nil {
		return result, nil
	}
	result.ScoringTerms = append(result.ScoringTerms, ScoringTerm{Field: n.Field, Term: terms[0]})

	first.Docs.Each(func(id uint32) {
		if phraseMatches(e.corpus, n.Field, terms, id, n.Slop, n.Fuzziness) {
			result.Docs.Add(id)
		}
	})
	for _, t := range terms[1:] {
		result.ScoringTerms = append(result.ScoringTerms, ScoringTerm{Field: n.Field, Term: t})
	}
	return result, nil
}

// phraseMatches walks each term's positions for docID, requiring every
// token to appear in order with the maximum inter-token gap <= slop. With
// fuzziness > 0 token equality is replaced by bounded edit distance and the
// search window widens by fuzziness positions, per spec.md §4.6.
func phraseMatches(corpus Corpus, field string, terms []string, docID uint32, slop, fuzziness int) bool {
	positionSets := make([][]uint32, len(terms))
	for i, t := range terms {
		if fuzziness == 0 {
			p := corpus.Postings(field, t)
			if p == nil {
				return false
			}
			positionSets[i] = p.PositionsFor(docID)
			if len(positionSets[i]) == 0 {
				return false
			}
			continue
		}

		var merged []uint32
		for _, candidate := range corpus.TermsForField(field) {
			if !query.WithinEditDistance(t, candidate, fuzziness) {
				continue
			}
			p := corpus.Postings(field, candidate)
			if p == nil {
				continue
			}
			merged = append(merged, p.PositionsFor(docID)...)
		}
		if len(merged) == 0 {
			return false
		}
		positionSets[i] = merged
	}

	return matchPositions(positionSets, slop+fuzziness)
}

// matchPositions finds one increasing sequence of positions, one per term
// in order, where each successive gap is within window.
func matchPositions(positionSets [][]uint32, window int) bool {
	var search func(idx int, minPos int64) bool
	search = func(idx int, minPos int64) bool {
		if idx == len(positionSets) {
			return true
		}
		for _, p := range positionSets[idx] {
			gap := int64(p) - minPos
			if idx == 0 {
				if search(idx+1, int64(p)) {
					return true
				}
				continue
			}
			if gap >= 1 && gap <= int64(window)+1 {
				if search(idx+1, int64(p)) {
					return true
				}
			}
		}
		return false
	}
	return search(0, -1)
}

func (e *Executor) evalGeoDistance(n query.GeoDistance) (*Result, error) {
	result := emptyResult()
	// The parser carries an [a, b] center as-is; ParsePoint's range heuristic
	// swaps the pair when only the second value fits the latitude range.
	center, _ := geo.ParsePoint([]float64{n.CenterLat, n.CenterLon})
	for _, d := range e.corpus.AllDocs() {
		v, ok := d.Document.Fields[n.Field]
		if !ok {
			continue
		}
		pt, err := geo.ParsePoint(v)
		if err != nil {
			continue
		}
		if geo.Within(center, pt, n.DistanceMeters) {
			result.Docs.Add(d.InternalID)
		}
	}
	return result, nil
}

func (e *Executor) evalBool(ctx context.Context, n query.Bool) (*Result, error) {
	result := &Result{Docs: docset.New()}

	var mustSet, filterSet *docset.DocIdSet
	hasMustOrFilter := len(n.Must) > 0 || len(n.Filter) > 0

	for i, clause := range n.Must {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := e.eval(ctx, clause)
		if err != nil {
			return nil, err
		}
		result.ScoringTerms = append(result.ScoringTerms, r.ScoringTerms...)
		result.ConstantBoost += r.ConstantBoost
		if i == 0 {
			mustSet = r.Docs
		} else {
			mustSet.And(r.Docs)
		}
	}

	for i, clause := range n.Filter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := e.eval(ctx, clause)
		if err != nil {
			return nil, err
		}
		// filter is non-scoring: its ScoringTerms/ConstantBoost are discarded.
		if i == 0 {
			filterSet = r.Docs
		} else {
			filterSet.And(r.Docs)
		}
	}

	switch {
	case mustSet != nil && filterSet != nil:
		result.Docs = mustSet.And(filterSet)
	case mustSet != nil:
		result.Docs = mustSet
	case filterSet != nil:
		result.Docs = filterSet
	default:
		result.Docs = e.corpus.AllDocIDs()
	}

	if n.ShouldPresent || len(n.Should) > 0 {
		var shouldSet *docset.DocIdSet
		for i, clause := range n.Should {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := e.eval(ctx, clause)
			if err != nil {
				return nil, err
			}
			result.ScoringTerms = append(result.ScoringTerms, r.ScoringTerms...)
			result.ConstantBoost += r.ConstantBoost
			if i == 0 {
				shouldSet = r.Docs
			} else {
				shouldSet.Or(r.Docs)
			}
		}
		if shouldSet == nil {
			shouldSet = docset.New()
		}

		switch {
		case hasMustOrFilter && n.MinimumShouldMatch >= 1:
			result.Docs = result.Docs.And(shouldSet)
		case hasMustOrFilter:
			// should contributes to scoring only; candidate set unchanged.
		default:
			result.Docs = shouldSet
		}
	}

	for _, clause := range n.MustNot {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := e.eval(ctx, clause)
		if err != nil {
			return nil, err
		}
		result.Docs.AndNot(r.Docs)
	}

	return result, nil
}

