package statement

import (
	"regexp"
	"strings"
)

// BlockSpec describes how to locate one named section of a statement's
// text. Start anchors the section heading; Marker is the column-header
// token that begins the section body; Subtotal matches the line that
// terminates the section.
type BlockSpec struct {
	Name     string
	Start    string // regex source; defaults to "^<Name>[^\n]*\n"
	Marker   string // e.g. "POSTING"
	Subtotal *regexp.Regexp
}

func (s BlockSpec) start() string {
	if s.Start != "" {
		return s.Start
	}
	return "^" + regexp.QuoteMeta(s.Name) + "[^\n]*?\n"
}

// ExtractBlock pulls the section's lines out of text, dropping
// interleaved noise. Sections can be split across pages, and the
// subtotal line is sometimes separated from the postings by blank
// lines, so extraction runs in two passes: a loose pass that collects
// every anchored segment up to the first blank line and stops early at
// a subtotal line, and, when that pass captured no subtotal, a
// greedier pass that explicitly extends the match to the subtotal
// pattern and appends the captured subtotal line.
func ExtractBlock(sourceFile, text string, spec BlockSpec) (string, error) {
	loose, err := regexp.Compile("(?ms)" + spec.start() + spec.Marker + ".*?\n\n")
	if err != nil {
		return "", err
	}

	var collect []string
	foundSubtotal := false
	segments := loose.FindAllString(text, -1)
	for _, segment := range segments {
		for _, line := range strings.Split(segment, "\n") {
			collect = append(collect, line)
			if spec.Subtotal != nil && spec.Subtotal.MatchString(line) {
				foundSubtotal = true
				break
			}
		}
	}

	if len(segments) == 0 {
		return "", &SectionNotFoundError{SourceFile: sourceFile, Section: spec.Name}
	}

	block := strings.Join(collect, "\n")

	if spec.Subtotal != nil && !foundSubtotal {
		greedy, err := regexp.Compile("(?ms)" + spec.start() + spec.Marker +
			".*?(\n[^\n]*(?:" + spec.Subtotal.String() + ")[^\n]*)")
		if err != nil {
			return "", err
		}
		m := greedy.FindStringSubmatch(text)
		if m == nil {
			return "", &SectionNotFoundError{SourceFile: sourceFile, Section: spec.Name + " subtotal"}
		}
		block += m[1]
	}

	return block, nil
}

// ExtractRegion returns the first match of re in text, for sections
// that are a single contiguous region (no subtotal termination).
func ExtractRegion(sourceFile, text, name string, re *regexp.Regexp) (string, error) {
	m := re.FindString(text)
	if m == "" {
		return "", &SectionNotFoundError{SourceFile: sourceFile, Section: name}
	}
	return strings.TrimRight(m, "\n"), nil
}
