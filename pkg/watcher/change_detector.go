package watcher

// ChangeAnalysis describes what must be reloaded before the next run.
// Extraction itself is always rerun from scratch.
type ChangeAnalysis struct {
	ReloadConfig bool
	ChangedFiles []string
}

// AnalyzeChanges folds a batch of debounced events into one rerun decision
func AnalyzeChanges(events ...ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{}

	for _, event := range events {
		analysis.ChangedFiles = append(analysis.ChangedFiles, event.Paths...)

		// Settings may select a different source or filter
		if event.Type == ChangeTypeConfig {
			analysis.ReloadConfig = true
		}
	}

	return analysis
}
