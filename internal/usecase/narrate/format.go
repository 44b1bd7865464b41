package narrate

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kailas-cloud/medagent/internal/domain"
)

// cellEscaper keeps tabs and line breaks inside a value from breaking the table layout.
var cellEscaper = strings.NewReplacer("\t", `\t`, "\n", `\n`, "\r", `\r`)

const searchUnavailable = "Sorry, the medical search service is unavailable right now, so no search results could be retrieved."

// FormatTable renders rows as an aligned, row-oriented text block.
func FormatTable(t domain.TabularResult) string {
	if len(t.Rows) == 0 {
		return "(no rows)"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = cellEscaper.Replace(c)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = formatValue(row[c])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()

	out := strings.TrimRight(b.String(), "\n")
	if t.Truncated {
		out += fmt.Sprintf("\n(showing first %d rows)", len(t.Rows))
	}
	return out
}

// FormatSnippets renders the set as an enumerated list, or an apology for the error marker.
func FormatSnippets(s domain.SearchResultSet) string {
	if s.Failed() {
		return searchUnavailable
	}
	if len(s.Snippets) == 0 {
		return "(no results)"
	}

	var b strings.Builder
	for i, sn := range s.Snippets {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s\n   %s", i+1, sn.Title, sn.Content)
		if sn.Source != "" {
			fmt.Fprintf(&b, "\n   Source: %s", sn.Source)
		}
	}
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return cellEscaper.Replace(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return cellEscaper.Replace(fmt.Sprint(x))
	}
}
