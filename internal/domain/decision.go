package domain

// Category is the coarse intent of a question.
type Category int

// Question categories.
const (
	CategoryKnowledge Category = iota
	CategoryData
)

func (c Category) String() string {
	if c == CategoryData {
		return "data"
	}
	return "knowledge"
}

// Path is the pipeline branch chosen for a question.
type Path string

// Pipeline paths.
const (
	PathStructured Path = "structured"
	PathKnowledge  Path = "knowledge"
)

// Decision is the single routing decision made per question.
// Domain is Unknown on the knowledge path and when a data question names no condition.
type Decision struct {
	Path   Path
	Domain Domain
}

// StructuredData builds a structured-data decision for d.
func StructuredData(d Domain) Decision {
	return Decision{Path: PathStructured, Domain: d}
}

// Knowledge builds a knowledge-path decision.
func Knowledge() Decision {
	return Decision{Path: PathKnowledge, Domain: Unknown}
}

// NeedsClarification reports a data question without a resolvable domain.
func (d Decision) NeedsClarification() bool {
	return d.Path == PathStructured && !d.Domain.Known()
}
