package rfced

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Trailing revision suffix on index draft names ("draft-foo-07").
var indexDraftRevRe = regexp.MustCompile(`-\d\d$`)

// docListXML captures the <doc-id> children of a cross-reference element
// such as <updates>, <obsoletes> or <is-also>.
type docListXML struct {
	DocIDs []string `xml:"doc-id"`
}

// stdEntryXML mirrors a <bcp-entry>, <fyi-entry> or <std-entry> element.
type stdEntryXML struct {
	DocID  string       `xml:"doc-id"`
	IsAlso []docListXML `xml:"is-also"`
}

// rfcEntryXML mirrors one <rfc-entry> element of the index feed.
type rfcEntryXML struct {
	DocID string `xml:"doc-id"`
	Title string `xml:"title"`

	Authors []struct {
		Name string `xml:"name"`
	} `xml:"author"`

	Date struct {
		Year  int    `xml:"year"`
		Month string `xml:"month"`
	} `xml:"date"`

	CurrentStatus string `xml:"current-status"`

	Updates     docListXML `xml:"updates"`
	UpdatedBy   docListXML `xml:"updated-by"`
	Obsoletes   docListXML `xml:"obsoletes"`
	ObsoletedBy docListXML `xml:"obsoleted-by"`

	PageCount string `xml:"page-count"`
	Stream    string `xml:"stream"`
	WGAcronym string `xml:"wg_acronym"`

	Formats []struct {
		FileFormats []string `xml:"file-format"`
	} `xml:"format"`

	Abstracts []struct {
		Paragraphs []string `xml:"p"`
	} `xml:"abstract"`

	Draft     string   `xml:"draft"`
	ErrataURL []string `xml:"errata-url"`
}

// ParseIndex parses the RFC Editor index XML into entries.
//
// Two passes happen over one streamed read: secondary-standard entries
// (BCP/FYI/STD) are collected into a constituent-RFC -> secondary-identifier
// mapping while the main rfc-entry list builds up, and the also-known-as
// field of each main entry is filled from that mapping before returning.
//
// Same fault policy as ParseQueue: the first malformed entry aborts.
func ParseIndex(r io.Reader, logger *zap.Logger) ([]IndexEntry, error) {
	dec := xml.NewDecoder(r)

	alsoList := make(map[string][]string)
	var entries []IndexEntry

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("Malformed index XML", zap.Error(err))
			return nil, fmt.Errorf("malformed index XML: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "bcp-entry", "fyi-entry", "std-entry":
			var raw stdEntryXML
			if err := dec.DecodeElement(&raw, &se); err != nil {
				logger.Error("Failed to parse index entry",
					zap.String("element", se.Name.Local),
					zap.Error(err))
				return nil, fmt.Errorf("failed to parse %s: %w", se.Name.Local, err)
			}
			secondary := normalizeStdName(raw.DocID)
			for _, also := range raw.IsAlso {
				for _, id := range also.DocIDs {
					docID := normalizeStdName(id)
					alsoList[docID] = append(alsoList[docID], secondary)
				}
			}

		case "rfc-entry":
			var raw rfcEntryXML
			if err := dec.DecodeElement(&raw, &se); err != nil {
				logger.Error("Failed to parse index entry",
					zap.String("element", se.Name.Local),
					zap.Error(err))
				return nil, fmt.Errorf("failed to parse rfc-entry: %w", err)
			}
			entry, err := buildIndexEntry(raw)
			if err != nil {
				logger.Error("Failed to parse index entry",
					zap.String("doc_id", raw.DocID),
					zap.Error(err))
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	// Cross-reference pass: map secondary standards back onto their
	// constituent RFCs.
	for i := range entries {
		key := fmt.Sprintf("RFC%04d", entries[i].RFCNumber)
		if also, ok := alsoList[key]; ok {
			entries[i].AlsoKnownAs = append(entries[i].AlsoKnownAs, also...)
		}
	}

	return entries, nil
}

func buildIndexEntry(raw rfcEntryXML) (IndexEntry, error) {
	number, err := strconv.Atoi(strings.TrimPrefix(raw.DocID, "RFC"))
	if err != nil {
		return IndexEntry{}, fmt.Errorf("bad rfc-entry doc-id %q: %w", raw.DocID, err)
	}

	month := 0
	for i, m := range monthNames {
		if m == raw.Date.Month {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return IndexEntry{}, fmt.Errorf("bad month %q in rfc-entry %s", raw.Date.Month, raw.DocID)
	}
	// The feed only has month/year precision; day is pinned to 1.
	published := time.Date(raw.Date.Year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	var authors []string
	for _, a := range raw.Authors {
		authors = append(authors, a.Name)
	}

	wg := raw.WGAcronym
	if wg != "" && (wg == "NON WORKING GROUP" || len(wg) > 15) {
		// Placeholder, not a real acronym
		wg = ""
	}

	var formats []string
	for _, f := range raw.Formats {
		formats = append(formats, f.FileFormats...)
	}

	abstract := ""
	for _, a := range raw.Abstracts {
		abstract = strings.Join(a.Paragraphs, "\n\n")
	}

	draft := raw.Draft
	if draft != "" {
		draft = indexDraftRevRe.ReplaceAllString(draft, "")
	}

	pages, _ := strconv.Atoi(strings.TrimSpace(raw.PageCount))

	return IndexEntry{
		RFCNumber:    number,
		Title:        raw.Title,
		Authors:      authors,
		Published:    published,
		Status:       titleCase(raw.CurrentStatus),
		Updates:      normalizeDocList(raw.Updates),
		UpdatedBy:    normalizeDocList(raw.UpdatedBy),
		Obsoletes:    normalizeDocList(raw.Obsoletes),
		ObsoletedBy:  normalizeDocList(raw.ObsoletedBy),
		Draft:        draft,
		HasErrata:    len(raw.ErrataURL) > 0,
		Stream:       raw.Stream,
		WorkingGroup: wg,
		FileFormats:  strings.ToLower(strings.Join(formats, ",")),
		Pages:        pages,
		Abstract:     abstract,
	}, nil
}

func normalizeDocList(l docListXML) []string {
	var out []string
	for _, id := range l.DocIDs {
		out = append(out, normalizeStdName(id))
	}
	return out
}

// titleCase uppercases the first letter of each space-separated word and
// lowercases the rest: "PROPOSED STANDARD" -> "Proposed Standard".
func titleCase(s string) string {
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
