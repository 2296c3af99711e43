package toc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Section numbering
// ---------------------------------------------------------------------------

// idPattern matches a leading dotted section number such as "4", "4.2." or
// "4.2.1".
var idPattern = regexp.MustCompile(`^([1-9]\d*(?:\.\d+)*)\.?`)

// numberedHeading splits "4.2.1  Label" into the id and the label.
var numberedHeading = regexp.MustCompile(`^([1-9]\d*(?:\.\d+)*)\.?(\s+)(\S.*)$`)

// ParseID extracts the dotted section number from the start of a title.
// The number must be followed by whitespace or end the title, so "2019
// Edition" yields "2019" but "3D Models" yields "".
func ParseID(title string) string {
	title = strings.TrimSpace(title)
	loc := idPattern.FindStringSubmatchIndex(title)
	if loc == nil {
		return ""
	}
	rest := title[loc[1]:]
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsSpace(r) {
			return ""
		}
	}
	return title[loc[2]:loc[3]]
}

// NumberingLevel returns the depth implied by a section id: "1" is level
// 1, "1.2" is level 2, and so on. An empty id is level 1.
func NumberingLevel(id string) int {
	if id == "" {
		return 1
	}
	return strings.Count(id, ".") + 1
}

// splitNumbered returns the id and label of a numbered heading line.
func splitNumbered(line string) (id, label string, ok bool) {
	m := numberedHeading.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[3]), true
}

// ---------------------------------------------------------------------------
// Rejection rules
// ---------------------------------------------------------------------------

var (
	// Dot leaders, ellipsis, or a TOC-style trailing page number.
	trailingLeader = regexp.MustCompile(`(\.{3,}|…|\s\.\s\.)\s*\d*\s*$|(\.{2,}|\s{2,})\d+\s*$`)
	endsPunct      = regexp.MustCompile(`[;,.:]\s*$`)
	endsConj       = regexp.MustCompile(`(?i)\b(and|or|but|nor|yet|so)\s*$`)
	modalVerb      = regexp.MustCompile(`(?i)\b(shall|should|must|will|is|are)\b`)
	numericRange   = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(-|–|—|to)\s*\d+`)
)

const (
	maxIDSegments     = 6
	maxIDSegmentChars = 3
)

// Rejection names the rule that disqualified a candidate heading.
type Rejection string

const (
	RejectNone         Rejection = ""
	RejectLeader       Rejection = "trailing-leader"
	RejectLowercase    Rejection = "starts-lowercase"
	RejectPunctuation  Rejection = "ends-punctuation"
	RejectConjunction  Rejection = "ends-conjunction"
	RejectModal        Rejection = "modal-verb"
	RejectRange        Rejection = "numeric-range"
	RejectDeepID       Rejection = "too-many-segments"
	RejectLongSegment  Rejection = "long-segment"
	RejectNotNumbered  Rejection = "not-numbered"
	RejectNoEmphasis   Rejection = "no-emphasis"
	RejectRepeatedID   Rejection = "repeated-id"
	RejectRepeatedName Rejection = "repeated-title"
)

// Reject applies the rejection rules to a heading candidate. id may be
// empty; label is the text after the number (or the whole line).
func Reject(id, label string) Rejection {
	switch {
	case trailingLeader.MatchString(label):
		return RejectLeader
	case startsLower(label):
		return RejectLowercase
	case endsPunct.MatchString(label):
		return RejectPunctuation
	case endsConj.MatchString(label):
		return RejectConjunction
	case modalVerb.MatchString(label):
		return RejectModal
	case numericRange.MatchString(label):
		return RejectRange
	}
	if id != "" {
		segs := strings.Split(id, ".")
		if len(segs) > maxIDSegments {
			return RejectDeepID
		}
		for _, s := range segs {
			if len(s) > maxIDSegmentChars {
				return RejectLongSegment
			}
		}
	}
	return RejectNone
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	return unicode.IsLower(r)
}

// ---------------------------------------------------------------------------
// Front-matter whitelist and artifact denylist
// ---------------------------------------------------------------------------

// DefaultWhitelist lists unnumbered titles always accepted at level 1.
var DefaultWhitelist = []string{
	"Abstract", "Foreword", "Preface", "Introduction", "Scope",
	"Glossary", "References", "Bibliography", "Index",
}

// whitelistPrefix matches lettered back-matter like "Appendix A".
var whitelistPrefix = regexp.MustCompile(`(?i)^(appendix|annex)\b`)

func whitelisted(title string, list []string) bool {
	t := strings.TrimSpace(title)
	if whitelistPrefix.MatchString(t) {
		return true
	}
	for _, w := range list {
		if strings.EqualFold(t, w) {
			return true
		}
	}
	return false
}

// DefaultDenylist lists outline entries that are document artifacts
// rather than sections.
var DefaultDenylist = []string{
	"Table of Contents", "Contents", "Revision History", "Untitled", "Bookmark",
	"Title", "Author", "Subject", "Keywords", "Creator", "Producer",
}

func denied(title string, list []string) bool {
	t := strings.TrimSpace(title)
	for _, d := range list {
		if strings.EqualFold(t, d) {
			return true
		}
	}
	return false
}
