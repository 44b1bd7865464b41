package domain

// Result is either a TabularResult or a SearchResultSet.
type Result interface {
	isResult()
}

// Row maps column name to a scalar value.
type Row map[string]any

// TabularResult is the output of one structured query.
type TabularResult struct {
	Columns   []string
	Rows      []Row
	Truncated bool
}

func (TabularResult) isResult() {}

// Len returns the number of rows.
func (t TabularResult) Len() int { return len(t.Rows) }

// Column describes one column of a backing table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema describes the backing table of a dataset.
type Schema struct {
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// Snippet is one ranked knowledge-search hit.
type Snippet struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// SearchResultSet is the output of the knowledge search.
// A non-nil Err is the explicit error marker: the provider failed and Snippets is empty.
type SearchResultSet struct {
	Snippets []Snippet
	Err      error
}

func (SearchResultSet) isResult() {}

// Failed reports whether the set is the error marker.
func (s SearchResultSet) Failed() bool { return s.Err != nil }

// SearchFailure builds the error marker.
func SearchFailure(err error) SearchResultSet {
	return SearchResultSet{Err: err}
}
