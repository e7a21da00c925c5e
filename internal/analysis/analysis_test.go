package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardAnalyzerBasic(t *testing.T) {
	a := NewStandardAnalyzer(nil)
	tokens := a.Analyze("Hello, World!")
	terms := termsOf(tokens)
	assert.Equal(t, []string{"hello", "world"}, terms)
}

func TestStandardAnalyzerStopWords(t *testing.T) {
	a := NewStandardAnalyzer([]string{"the", "a"})
	tokens := a.Analyze("the quick fox")
	terms := termsOf(tokens)
	assert.Equal(t, []string{"quick", "fox"}, terms)
}

func TestStandardAnalyzerCamelCase(t *testing.T) {
	a := NewStandardAnalyzer(nil)
	tokens := a.Analyze("getUserById")
	terms := termsOf(tokens)
	assert.Equal(t, []string{"get", "user", "by", "id"}, terms)
}

func TestStandardAnalyzerEmpty(t *testing.T) {
	a := NewStandardAnalyzer(nil)
	assert.Empty(t, a.Analyze(""))
}

func TestKeywordAnalyzer(t *testing.T) {
	var a KeywordAnalyzer
	tokens := a.Analyze("Some Value Here")
	assert.Equal(t, []Token{{Term: "some value here", Position: 0}}, tokens)
}

func TestEmailAnalyzer(t *testing.T) {
	var a EmailAnalyzer
	tokens := a.Analyze("John.Doe@Example.COM")
	terms := termsOf(tokens)
	assert.Equal(t, []string{"john.doe@example.com", "john.doe", "example.com"}, terms)
}

func TestUrlAnalyzer(t *testing.T) {
	var a UrlAnalyzer
	tokens := a.Analyze("https://www.example.com/docs/123/guide")
	terms := termsOf(tokens)
	assert.Equal(t, []string{"www", "example", "com", "docs", "guide"}, terms)
}

func TestPhoneAnalyzer(t *testing.T) {
	var a PhoneAnalyzer
	tokens := a.Analyze("+1 (555) 123-4567")
	terms := termsOf(tokens)
	assert.Equal(t, []string{"1", "555", "123", "4567", "15551234567"}, terms)
}

func TestSynonymEngineExpand(t *testing.T) {
	e := NewSynonymEngine(map[string][]string{"fast": {"quick", "rapid"}})
	assert.ElementsMatch(t, []string{"fast", "quick", "rapid"}, e.Expand("fast"))
	assert.Equal(t, []string{"slow"}, e.Expand("slow"))
}

func TestSynonymEngineNilIsNoop(t *testing.T) {
	var e *SynonymEngine
	assert.Equal(t, []string{"term"}, e.Expand("term"))
}

func termsOf(tokens []Token) []string {
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}
