package rfced

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"doc-sync/feature/docs"
)

// QueueEntry is one parsed entry from the RFC Editor queue feed. Entries
// live only for one sync run.
type QueueEntry struct {
	DraftName         string
	DateReceived      string
	State             string
	Tags              []string
	MissrefGeneration string
	Stream            string
	Auth48URL         string
	ClusterURL        string
	Refs              []NormRef
}

// NormRef is a normative reference listed for a queue entry.
type NormRef struct {
	Name    string
	State   string
	InQueue bool
}

// IndexEntry is one parsed rfc-entry from the RFC Editor index feed.
type IndexEntry struct {
	RFCNumber   int
	Title       string
	Authors     []string
	Published   time.Time // month/year precision, day pinned to 1
	Status      string
	Updates     []string
	UpdatedBy   []string
	Obsoletes   []string
	ObsoletedBy []string
	AlsoKnownAs []string
	Draft       string
	HasErrata   bool
	Stream      string
	WorkingGroup string
	FileFormats string
	Pages       int
	Abstract    string
}

// Erratum is one record of the externally supplied errata dataset.
type Erratum struct {
	DocID  string `json:"doc-id"`
	Status string `json:"errata_status_code"`
}

// Erratum status codes with special meaning for tag reconciliation.
const (
	ErrataRejected = "Rejected"
	ErrataVerified = "Verified"
)

// QueueStateCodes maps the state codes appearing in the queue feed to
// internal RFC Editor queue state slugs. Resolved once per reconciliation
// pass and passed into the reconciler.
func QueueStateCodes() map[string]string {
	return map[string]string{
		"AUTH":        "auth",
		"AUTH48":      "auth48",
		"AUTH48-DONE": "auth48-done",
		"EDIT":        "edit",
		"IANA":        "iana",
		"IESG":        "iesg",
		"ISR":         "isr",
		"ISR-AUTH":    "isr-auth",
		"REF":         "ref",
		"RFC-EDITOR":  "rfc-edit",
		"TI":          "tooling-issue",
		"TO":          "timeout",
		"MISSREF":     "missref",
	}
}

// StdLevels maps the title-cased current-status values from the index feed
// to standardization level slugs.
func StdLevels() map[string]string {
	return map[string]string{
		"Standard":              "std",
		"Internet Standard":     "std",
		"Draft Standard":        "ds",
		"Proposed Standard":     "ps",
		"Informational":         "inf",
		"Experimental":          "exp",
		"Best Current Practice": "bcp",
		"Historic":              "hist",
		"Unknown":               "unkn",
	}
}

// Streams maps the stream names from the index feed to stream slugs.
func Streams() map[string]string {
	return map[string]string{
		"IETF":        "ietf",
		"INDEPENDENT": "ise",
		"IRTF":        "irtf",
		"IAB":         "iab",
		"Legacy":      "legacy",
	}
}

// streamNamespaces are the lifecycle namespaces forced to published when an
// RFC appears in the index. docs.StateTypeIESG is the primary approval
// namespace and additionally gets initialized when empty.
func streamNamespaces() []string {
	return []string{
		docs.StateTypeIESG,
		docs.StateTypeStreamIAB,
		docs.StateTypeStreamIRTF,
		docs.StateTypeStreamISE,
	}
}

// normalizeStdName strips zero padding from the numeric suffix of RFC, FYI,
// BCP and STD identifiers: "RFC0020" -> "RFC20". Anything else passes
// through unchanged.
func normalizeStdName(name string) string {
	if len(name) < 3 {
		return name
	}
	prefix := name[:3]
	switch prefix {
	case "RFC", "FYI", "BCP", "STD":
		if n, err := strconv.Atoi(name[3:]); err == nil {
			return prefix + strconv.Itoa(n)
		}
	}
	return name
}

// prettifyStdName turns "rfc9999" into "RFC 9999" for change notes. Names
// without a recognized prefix pass through unchanged.
func prettifyStdName(name string) string {
	if len(name) < 3 {
		return name
	}
	prefix := strings.ToUpper(name[:3])
	switch prefix {
	case "RFC", "FYI", "BCP", "STD":
		rest := strings.TrimLeft(name[3:], " ")
		if _, err := strconv.Atoi(rest); err == nil {
			return fmt.Sprintf("%s %s", prefix, rest)
		}
	}
	return name
}
