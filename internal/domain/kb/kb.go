// Package kb defines knowledge base article and search result types.
package kb

// Article is a single knowledge base entry.
type Article struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Content string   `json:"content" yaml:"content"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Steps   []string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Findings is the result of a knowledge base search. Response generation
// treats it as opaque text except for Steps, whose presence switches the
// fallback response into a numbered-instructions form.
type Findings struct {
	Query    string    `json:"query"`
	Articles []Article `json:"articles,omitempty"`
	Steps    []string  `json:"steps,omitempty"`
}

// HasSteps reports whether the findings carry an ordered remediation sequence.
func (f *Findings) HasSteps() bool {
	return f != nil && len(f.Steps) > 0
}
