package domain

// Answer is the terminal artifact of one orchestration run.
// Err is set when Text is a diagnostic rather than a narrated answer.
type Answer struct {
	Text     string
	Decision Decision
	Err      error
}

// Failed reports whether the answer is a diagnostic.
func (a Answer) Failed() bool { return a.Err != nil }
