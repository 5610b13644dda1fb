package stringsfile

import "strings"

// Serialize reassembles entries of doc in the given order, each as its
// comment followed by its line, then appends doc.Trailer. Keys not present
// in doc are skipped.
//
// Only the final line of a source file can lack a '\n'. When such a line is
// moved before other entries, a '\n' is written after it.
func Serialize(order []string, doc *Document) string {
	var b strings.Builder
	for i, key := range order {
		e, ok := doc.Get(key)
		if !ok {
			continue
		}
		b.WriteString(e.Comment)
		b.WriteString(e.Line)
		if i < len(order)-1 && !strings.HasSuffix(e.Line, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString(doc.Trailer)
	return b.String()
}
