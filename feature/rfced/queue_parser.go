package rfced

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Trailing revision/extension suffix on queue draft names. The extension can
// appear doubled ("draft-foo-07.txt.txt").
var draftSuffixRe = regexp.MustCompile(`(-\d\d)?(.txt){1,2}$`)

// Missing-reference generation counter embedded in the state string.
var missrefGenRe = regexp.MustCompile(`\(([0-9]+)G\)`)

// queueEntryXML mirrors one <entry> element of the queue feed.
type queueEntryXML struct {
	Draft        string   `xml:"draft"`
	DateReceived string   `xml:"date-received"`
	State        string   `xml:"state"`
	Auth48URL    []string `xml:"auth48-url"`
	ClusterURL   []string `xml:"cluster-url"`
	NormRefs     []struct {
		RefName  string `xml:"ref-name"`
		RefState string `xml:"ref-state"`
	} `xml:"normRef"`
}

// ParseQueue parses the RFC Editor queue XML into entries plus warnings.
//
// Parsing is not fault tolerant per entry: a malformed entry is logged with
// its context and aborts the whole parse. Unrecognized section labels only
// warn and reset the stream context.
func ParseQueue(r io.Reader, logger *zap.Logger) ([]QueueEntry, []string, error) {
	dec := xml.NewDecoder(r)

	var entries []QueueEntry
	var warnings []string
	stream := ""

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("Malformed queue XML", zap.Error(err))
			return nil, warnings, fmt.Errorf("malformed queue XML: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "section":
			name := xmlAttr(se, "name")
			switch {
			case strings.HasPrefix(name, "IETF"):
				stream = "ietf"
			case strings.HasPrefix(name, "IAB"):
				stream = "iab"
			case strings.HasPrefix(name, "IRTF"):
				stream = "irtf"
			case strings.HasPrefix(name, "INDEPENDENT"):
				stream = "ise"
			default:
				stream = ""
				warnings = append(warnings, "unrecognized section "+name)
			}

		case "entry":
			var raw queueEntryXML
			if err := dec.DecodeElement(&raw, &se); err != nil {
				logger.Error("Failed to parse queue entry",
					zap.String("stream", stream),
					zap.Error(err))
				return nil, warnings, fmt.Errorf("failed to parse queue entry: %w", err)
			}
			entries = append(entries, buildQueueEntry(raw, stream))
		}
	}

	return entries, warnings, nil
}

// buildQueueEntry normalizes one raw entry: suffix stripping, state
// annotation decoding, last-wins URLs.
func buildQueueEntry(raw queueEntryXML, stream string) QueueEntry {
	name := strings.TrimSpace(raw.Draft)
	name = draftSuffixRe.ReplaceAllString(name, "")

	state := raw.State
	var tags []string
	missrefGeneration := ""

	// The state string carries extra annotations; decode and strip them.
	if strings.Contains(state, "*R") {
		tags = append(tags, "ref")
		state = strings.ReplaceAll(state, "*R", "")
	}
	if strings.Contains(state, "*A") {
		tags = append(tags, "iana")
		state = strings.ReplaceAll(state, "*A", "")
	}
	if m := missrefGenRe.FindStringSubmatch(state); m != nil {
		missrefGeneration = m[1]
		state = strings.ReplaceAll(state, fmt.Sprintf("(%sG)", missrefGeneration), "")
	}

	entry := QueueEntry{
		DraftName:         name,
		DateReceived:      raw.DateReceived,
		State:             state,
		Tags:              tags,
		MissrefGeneration: missrefGeneration,
		Stream:            stream,
	}

	// Zero-or-one URL per entry; last occurrence wins if duplicated.
	if len(raw.Auth48URL) > 0 {
		entry.Auth48URL = raw.Auth48URL[len(raw.Auth48URL)-1]
	}
	if len(raw.ClusterURL) > 0 {
		entry.ClusterURL = raw.ClusterURL[len(raw.ClusterURL)-1]
	}

	for _, ref := range raw.NormRefs {
		entry.Refs = append(entry.Refs, NormRef{
			Name:    ref.RefName,
			State:   ref.RefState,
			InQueue: strings.HasPrefix(ref.RefState, "IN-QUEUE"),
		})
	}

	return entry
}

func xmlAttr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
