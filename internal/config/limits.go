package config

const (
	// MaxProjectTitleLength is the maximum length for project titles.
	// The service stores titles in VARCHAR(255); rejecting longer input
	// client-side gives an immediate error instead of a 4xx round-trip.
	MaxProjectTitleLength = 255

	// MaxChapterTitleLength is the maximum length for chapter titles.
	// Same limit as project titles for consistency.
	MaxChapterTitleLength = 255

	// MaxEntityNameLength is the maximum length for entity names.
	MaxEntityNameLength = 255

	// MaxChangeSummaryLength is the maximum length for a version's
	// change summary. Summaries are one-line descriptions, not notes.
	MaxChangeSummaryLength = 500

	// MaxQuestionLength is the maximum length for an assistant question.
	MaxQuestionLength = 4000
)
