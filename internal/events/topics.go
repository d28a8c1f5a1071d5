package events

// Topic constants for quote lifecycle events.
const (
	TopicQuoteHydrated = "quote.hydrated"
	TopicQuoteChanged  = "quote.changed"
	TopicQuoteReset    = "quote.reset"
)

// DefaultTopics returns the canonical list of topics emitted by quote sessions.
func DefaultTopics() []string {
	return []string{
		TopicQuoteHydrated,
		TopicQuoteChanged,
		TopicQuoteReset,
	}
}
