package changelog

import "strings"

const (
	headingPrefix = "## "
	delimiter     = "\n" + headingPrefix
)

// LineEndings controls how carriage returns are treated before splitting.
type LineEndings string

const (
	// LineEndingsNormalize rewrites "\r\n" and lone "\r" to "\n" before splitting.
	LineEndingsNormalize LineEndings = "normalize"
	// LineEndingsPreserve splits the document exactly as read.
	LineEndingsPreserve LineEndings = "preserve"
)

// ParseOptions tunes Latest.
type ParseOptions struct {
	LineEndings LineEndings
}

// Release is a single changelog section.
type Release struct {
	// Heading is the heading line without the "## " prefix.
	Heading string `json:"heading"`
	// Body is everything after the heading line, kept verbatim.
	Body string `json:"-"`
}

// Markdown renders the release with a normalized "## " heading.
func (r Release) Markdown() string {
	var sb strings.Builder
	sb.Grow(len(headingPrefix) + len(r.Heading) + 1 + len(r.Body))
	sb.WriteString(headingPrefix)
	sb.WriteString(r.Heading)
	sb.WriteString("\n")
	sb.WriteString(r.Body)
	return sb.String()
}

// Latest returns the first release section of content.
func Latest(content string, opts ParseOptions) (Release, error) {
	if opts.LineEndings != LineEndingsPreserve {
		content = strings.ReplaceAll(content, "\r\n", "\n")
		content = strings.ReplaceAll(content, "\r", "\n")
	}

	segments := strings.Split(content, delimiter)
	if len(segments) < 2 {
		return Release{}, &NoReleaseError{Segments: len(segments)}
	}

	section := strings.TrimSpace(segments[1])
	heading, body, _ := strings.Cut(section, "\n")
	return Release{Heading: heading, Body: body}, nil
}
