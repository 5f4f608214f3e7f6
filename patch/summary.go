package patch

import "strings"

// summaryPreviewLines is how many added and deleted lines a ChangeSummary previews.
const summaryPreviewLines = 5

// ChangeSummary is a quick overview of a unified diff.
type ChangeSummary struct {
	TotalChanges int      `json:"total_changes"`
	Additions    int      `json:"additions"`
	Deletions    int      `json:"deletions"`
	AddedLines   []string `json:"added_lines"`
	DeletedLines []string `json:"deleted_lines"`
}

// Summarize counts the added and removed body lines of unified-diff text and previews the
// first few of each, trimmed of surrounding whitespace. It does not validate the diff.
func Summarize(unified string) ChangeSummary {
	summary := ChangeSummary{AddedLines: []string{}, DeletedLines: []string{}}
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			continue
		case strings.HasPrefix(line, "+"):
			summary.Additions++
			if len(summary.AddedLines) < summaryPreviewLines {
				summary.AddedLines = append(summary.AddedLines, strings.TrimSpace(line[1:]))
			}
		case strings.HasPrefix(line, "-"):
			summary.Deletions++
			if len(summary.DeletedLines) < summaryPreviewLines {
				summary.DeletedLines = append(summary.DeletedLines, strings.TrimSpace(line[1:]))
			}
		}
	}
	summary.TotalChanges = summary.Additions + summary.Deletions
	return summary
}
