// Package changelog isolates the most recent release section of a markdown
// changelog.
//
// Releases are delimited by level-2 headings ("## "). The text before the first
// heading is the document title and is never part of a release. The section
// directly after it is treated as the latest release; nothing past the next
// heading is inspected.
package changelog
