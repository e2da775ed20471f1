package artifact

import "strings"

// PlaceholderPrefix starts every generated placeholder body. Health checks
// treat a section whose body still starts with it as unwritten.
const PlaceholderPrefix = "_TODO:"

// defaultSections is the table of required sections per type, with the
// placeholder body used when a section is omitted at creation time.
var defaultSections = map[Type][]Section{
	TypeRFC: {
		{Heading: "Summary", Body: PlaceholderPrefix + " one paragraph explaining the proposal._"},
		{Heading: "Problem Statement", Body: PlaceholderPrefix + " what problem does this solve and for whom?_"},
		{Heading: "Proposed Solution", Body: PlaceholderPrefix + " describe the design in enough detail to review._"},
		{Heading: "Alternatives Considered", Body: PlaceholderPrefix + " what else was evaluated and why was it rejected?_"},
	},
	TypeADR: {
		{Heading: "Context", Body: PlaceholderPrefix + " what forces are at play?_"},
		{Heading: "Decision", Body: PlaceholderPrefix + " what was decided?_"},
		{Heading: "Consequences", Body: PlaceholderPrefix + " what becomes easier or harder?_"},
	},
	TypeDecomposition: {
		{Heading: "Overview", Body: PlaceholderPrefix + " what is being decomposed and why?_"},
		{Heading: "Success Criteria", Body: PlaceholderPrefix + " how do we know the plan is done?_"},
	},
}

// DefaultSections returns a fresh copy of the placeholder sections for a type.
func DefaultSections(t Type) []Section {
	src := defaultSections[t]
	out := make([]Section, len(src))
	copy(out, src)
	return out
}

// IsPlaceholder reports whether a section body is still generated text.
func IsPlaceholder(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), PlaceholderPrefix)
}
