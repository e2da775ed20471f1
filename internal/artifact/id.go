package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// idPatterns is the allow-list of ID formats, one per type.
// The number part is at least 4 digits, zero-padded.
var idPatterns = map[Type]*regexp.Regexp{
	TypeRFC:           regexp.MustCompile(`^RFC-\d{4,}$`),
	TypeADR:           regexp.MustCompile(`^ADR-\d{4,}$`),
	TypeDecomposition: regexp.MustCompile(`^DECOMP-\d{4,}$`),
}

// ValidateID checks an artifact ID and returns the type it maps to.
//
// IDs containing path traversal characters ("..", "/", "\") or NUL bytes
// fail with ErrSecurity; IDs not matching a known prefix pattern fail with
// ErrValidation. Nothing derived from an ID may reach a filesystem path
// before this returns nil.
func ValidateID(id string) (Type, error) {
	if id == "" {
		return "", &Error{Kind: ErrValidation, Op: "validate id", Err: fmt.Errorf("artifact ID is empty")}
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, "/\\\x00") {
		return "", &Error{Kind: ErrSecurity, Op: "validate id", Err: fmt.Errorf("artifact ID %q contains path characters", id)}
	}
	for _, t := range AllTypes {
		if idPatterns[t].MatchString(id) {
			return t, nil
		}
	}
	return "", &Error{Kind: ErrValidation, Op: "validate id", Err: fmt.Errorf("artifact ID %q does not match RFC-NNNN, ADR-NNNN or DECOMP-NNNN", id)}
}

// FormatID builds the ID for the n-th artifact of a type: RFC-0001.
func FormatID(t Type, n int) string {
	return fmt.Sprintf("%s-%04d", t.Prefix(), n)
}

// IDNumber returns the numeric part of a valid ID.
func IDNumber(id string) (int, error) {
	if _, err := ValidateID(id); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(id[strings.LastIndex(id, "-")+1:])
	if err != nil {
		return 0, &Error{Kind: ErrValidation, Op: "parse id", ID: id, Err: err}
	}
	return n, nil
}
