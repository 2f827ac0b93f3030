package storage

// Workspace layout. Documents are atomically replaced; logs grow by
// append-only line records.
const (
	ConstitutionPath = "constitution.json"
	SoulPath         = "soul.json"
	ProposalsPath    = "proposals.json"
	TacticsDir       = "tactics"
	PostLogPath      = "history/posts.jsonl"
	EventLogPath     = "events/events.jsonl"
)
