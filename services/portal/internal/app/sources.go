package app

import (
	"strconv"
	"strings"

	"vietbuild/pkg/domain"
)

const sourceSeparator = "\n\n---\n\n"

// dedupeSources keeps the first source for each distinct trimmed content.
// Sources without content are dropped.
func dedupeSources(sources []domain.Source) []domain.Source {
	seen := make(map[string]struct{}, len(sources))
	out := make([]domain.Source, 0, len(sources))
	for _, src := range sources {
		key := strings.TrimSpace(src.Content)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, src)
	}
	return out
}

// renderReply builds the assistant text for a query response: one labeled
// block per distinct source, or the raw message when no source survives.
func renderReply(message string, sources []domain.Source) string {
	unique := dedupeSources(sources)
	if len(unique) == 0 {
		return message
	}
	blocks := make([]string, len(unique))
	for i, src := range unique {
		blocks[i] = renderSource(i+1, src)
	}
	return strings.Join(blocks, sourceSeparator)
}

func renderSource(n int, src domain.Source) string {
	var b strings.Builder
	b.WriteString("**📚 Nguồn ")
	b.WriteString(strconv.Itoa(n))
	b.WriteString("**")
	switch {
	case src.Filename != "" || src.SectionTitle != "":
		b.WriteString(" - ")
		if src.Filename != "" {
			b.WriteString("_" + src.Filename + "_")
		}
		if src.SectionTitle != "" {
			b.WriteString(" (" + src.SectionTitle + ")")
		}
	case src.Title != "":
		b.WriteString(" - " + src.Title)
	}
	b.WriteString("\n\n")
	b.WriteString(src.Content)
	return b.String()
}
