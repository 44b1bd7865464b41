package orchestrator

import (
	"strings"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// Classifier maps free text to a category and, for data questions, a domain.
type Classifier interface {
	Classify(text string) domain.Category
	ResolveDomain(text string) domain.Domain
}

// DefaultDataTerms is the quantitative vocabulary marking a data question.
func DefaultDataTerms() []string {
	return []string{
		"average", "mean", "median", "statistics", "data", "distribution",
		"count", "number", "percentage", "ratio", "compare", "analysis",
		"how many", "what percentage", "correlation", "trend",
	}
}

// DefaultDomainCues lists the terms that select each domain.
func DefaultDomainCues() map[domain.Domain][]string {
	return map[domain.Domain][]string{
		domain.Heart:    {"heart", "cardiac", "cardiovascular"},
		domain.Cancer:   {"cancer", "tumor", "malignant"},
		domain.Diabetes: {"diabetes", "glucose", "insulin"},
	}
}

// LexiconClassifier matches lower-cased substrings against fixed term lists.
type LexiconClassifier struct {
	dataTerms []string
	cues      map[domain.Domain][]string
}

// NewLexiconClassifier builds a classifier from the defaults plus extra terms.
func NewLexiconClassifier(extraTerms []string, extraCues map[domain.Domain][]string) *LexiconClassifier {
	c := &LexiconClassifier{
		dataTerms: appendLower(DefaultDataTerms(), extraTerms),
		cues:      DefaultDomainCues(),
	}
	for d, terms := range extraCues {
		c.cues[d] = appendLower(c.cues[d], terms)
	}
	return c
}

// Classify reports CategoryData when any data term occurs in text.
func (c *LexiconClassifier) Classify(text string) domain.Category {
	if containsAny(strings.ToLower(text), c.dataTerms) {
		return domain.CategoryData
	}
	return domain.CategoryKnowledge
}

// ResolveDomain returns the first domain, in priority order, whose cues occur in text.
func (c *LexiconClassifier) ResolveDomain(text string) domain.Domain {
	lower := strings.ToLower(text)
	for _, d := range domain.Domains() {
		if containsAny(lower, c.cues[d]) {
			return d
		}
	}
	return domain.Unknown
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func appendLower(dst, terms []string) []string {
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			dst = append(dst, t)
		}
	}
	return dst
}
