// Package models defines data structures shared by the harvester pipeline.
package models

// RecordKind classifies where a harvested record came from.
type RecordKind string

const (
	// KindQuestion is an expandable question harvested from the PAA panel.
	KindQuestion RecordKind = "PAA"
	// KindRelatedTerm is an entry from the "related searches" panel.
	KindRelatedTerm RecordKind = "Related Search"
)

// RecordOrigin marks whether a record was found via the raw keyword or a
// rewritten variant.
type RecordOrigin string

const (
	OriginOriginal RecordOrigin = "Original"
	OriginRetry    RecordOrigin = "Retry"
)

// HarvestRecord is one discovered unit of content. Text is the dedup key:
// it must be non-empty and unique (case-sensitive) within a keyword's store.
// Records are immutable once handed to the persistence layer.
type HarvestRecord struct {
	OriginalKeyword string
	SearchTerm      string
	Kind            RecordKind
	Text            string
	Snippet         string
	SourceLink      string
	// DiscoveryLevel is the 1-based expansion round at which a question was
	// opened; 0 is reserved for related terms.
	DiscoveryLevel int
	Origin         RecordOrigin
}
