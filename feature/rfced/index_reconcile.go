package rfced

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doc-sync/core/logger"
	"doc-sync/core/timeutil"
	"doc-sync/feature/docs"

	"go.uber.org/zap"
)

// IndexDeps bundles the capabilities and lookup tables for one index
// reconciliation pass. The maps are resolved once per pass and treated as
// immutable.
type IndexDeps struct {
	Store     Store
	Archiver  Archiver
	Clock     timeutil.Clock
	Logger    *zap.Logger
	StdLevels map[string]string
	Streams   map[string]string
	// Zone is the fixed reference zone for publication timestamps.
	Zone *time.Location
}

// IndexSyncResult reports one changed document from an index pass.
type IndexSyncResult struct {
	Doc       *docs.Document
	Changes   []string
	Published bool
}

// GroupErrata groups the externally supplied errata records by their
// document identifier (the feed's zero-padded "RFC0123" form).
func GroupErrata(errata []Erratum) map[string][]Erratum {
	grouped := make(map[string][]Erratum)
	for _, er := range errata {
		grouped[er.DocID] = append(grouped[er.DocID], er)
	}
	return grouped
}

// UpdateDocsFromIndex merges parsed index entries into the document records,
// creating documents for previously unseen RFC numbers. It returns a result
// for each document that had at least one change, in input order.
//
// We assume two things can happen: we get a new RFC, or an attribute has
// been updated at the RFC Editor. RFC Editor attributes take precedence
// over local ones.
func UpdateDocsFromIndex(ctx context.Context, deps IndexDeps, entries []IndexEntry, errata []Erratum, skipOlderThan *time.Time) ([]IndexSyncResult, error) {
	grouped := GroupErrata(errata)

	var results []IndexSyncResult
	for _, entry := range entries {
		if skipOlderThan != nil && entry.Published.Before(*skipOlderThan) {
			// speed up the process by skipping old entries
			continue
		}

		res, err := reconcileIndexEntry(ctx, deps, entry, grouped)
		if err != nil {
			return results, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

func reconcileIndexEntry(ctx context.Context, deps IndexDeps, entry IndexEntry, errata map[string][]Erratum) (*IndexSyncResult, error) {
	var changes []string
	var events []*docs.DocEvent
	published := false

	name := fmt.Sprintf("rfc%d", entry.RFCNumber)
	now := deps.Clock.Now()

	// Make sure we have the document and its canonical alias.
	doc, err := deps.Store.LookupAlias(ctx, name)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if entry.Draft != "" {
			doc, err = deps.Store.DocumentByName(ctx, entry.Draft)
			if err != nil {
				return nil, err
			}
		}
		if doc == nil {
			doc, err = deps.Store.CreateDocument(ctx, name)
			if err != nil {
				return nil, err
			}
			changes = append(changes, fmt.Sprintf("created document %s", prettifyStdName(name)))
		}
		if err := deps.Store.EnsureAlias(ctx, name, doc); err != nil {
			return nil, err
		}
		changes = append(changes, fmt.Sprintf("created alias %s", prettifyStdName(name)))
	}

	l := logger.WithDocument(deps.Logger, doc.Name)

	// Attribute reconciliation, strictly change-gated.
	if entry.Title != doc.Title {
		doc.Title = entry.Title
		changes = append(changes, fmt.Sprintf("changed title to '%s'", doc.Title))
	}

	if entry.Abstract != "" && entry.Abstract != doc.Abstract {
		doc.Abstract = entry.Abstract
		changes = append(changes, fmt.Sprintf("changed abstract to '%s'", doc.Abstract))
	}

	if entry.Pages > 0 && entry.Pages != doc.Pages {
		doc.Pages = entry.Pages
		changes = append(changes, fmt.Sprintf("changed pages to %d", doc.Pages))
	}

	stdLevel, ok := deps.StdLevels[entry.Status]
	if !ok {
		return nil, fmt.Errorf("unknown standardization level %q for %s", entry.Status, prettifyStdName(name))
	}
	if stdLevel != doc.StdLevel {
		doc.StdLevel = stdLevel
		changes = append(changes, fmt.Sprintf("changed standardization level to %s", doc.StdLevel))
	}

	draftState, err := deps.Store.GetState(ctx, doc, docs.StateTypeDraft)
	if err != nil {
		return nil, err
	}
	if draftState != docs.StateRFC {
		if err := deps.Store.SetState(ctx, doc, docs.StateTypeDraft, docs.StateRFC); err != nil {
			return nil, err
		}
		if err := deps.Archiver.MoveDraftFilesToArchive(ctx, doc); err != nil {
			return nil, err
		}
		changes = append(changes, "changed state to RFC")
	}

	stream, ok := deps.Streams[entry.Stream]
	if !ok {
		return nil, fmt.Errorf("unknown stream %q for %s", entry.Stream, prettifyStdName(name))
	}
	if stream != doc.Stream {
		doc.Stream = stream
		changes = append(changes, fmt.Sprintf("changed stream to %s", doc.Stream))
	}

	// If we have no group assigned, check if the RFC Editor has a
	// suggestion; never overwrite an existing assignment.
	if doc.Group == "" {
		if entry.WorkingGroup != "" {
			doc.Group = entry.WorkingGroup
			changes = append(changes, fmt.Sprintf("set group to %s", doc.Group))
		} else {
			doc.Group = docs.GroupIndividualSubmissions
		}
	}

	hasPublished, err := deps.Store.HasEvent(ctx, doc, docs.EventPublished)
	if err != nil {
		return nil, err
	}
	if !hasPublished {
		synthesized := synthesizePublicationTime(entry.Published, now, deps.Zone)
		events = append(events, &docs.DocEvent{
			Rev:  doc.Rev,
			By:   docs.SystemActor,
			Type: docs.EventPublished,
			Time: synthesized,
			Desc: "RFC published",
		})
		changes = append(changes, fmt.Sprintf("added RFC published event at %s", synthesized.Format("2006-01-02")))
		published = true
	}

	// Downstream lifecycle namespaces follow the publication.
	for _, t := range streamNamespaces() {
		prev, err := deps.Store.GetState(ctx, doc, t)
		if err != nil {
			return nil, err
		}
		if prev != "" {
			if prev != docs.StatePub && prev != docs.StateIDExists {
				if err := deps.Store.SetState(ctx, doc, t, docs.StatePub); err != nil {
					return nil, err
				}
				changes = append(changes, fmt.Sprintf("changed %s to %s", docs.StateTypeLabel(t), docs.StatePub))
				if e := docs.UpdateActionHolders(doc, docs.SystemActor, docs.StatePub, now); e != nil {
					events = append(events, e)
				}
			}
		} else if t == docs.StateTypeIESG {
			if err := deps.Store.SetState(ctx, doc, docs.StateTypeIESG, docs.StateIDExists); err != nil {
				return nil, err
			}
		}
	}

	// Relationship reconciliation: create only absent edges, never touch
	// existing ones.
	for _, rel := range []struct {
		ids  []string
		slug string
		verb string
	}{
		{entry.Obsoletes, docs.RelObsoletes, "obsoletes"},
		{entry.Updates, docs.RelUpdates, "updates"},
	} {
		targets, err := resolveRelationAliases(ctx, deps.Store, rel.ids)
		if err != nil {
			return nil, err
		}
		for _, target := range targets {
			exists, err := deps.Store.RelationExists(ctx, doc, target, rel.slug)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}
			if err := deps.Store.CreateRelation(ctx, doc, target, rel.slug); err != nil {
				return nil, err
			}
			changes = append(changes, fmt.Sprintf("created %s relation between %s and %s",
				rel.verb, prettifyStdName(doc.Name), prettifyStdName(target)))
		}
	}

	// Secondary-standard aliases (BCP/FYI/STD).
	for _, a := range entry.AlsoKnownAs {
		a = strings.ToLower(a)
		exists, err := deps.Store.AliasExists(ctx, a)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if err := deps.Store.EnsureAlias(ctx, a, doc); err != nil {
			return nil, err
		}
		changes = append(changes, fmt.Sprintf("created alias %s", prettifyStdName(a)))
	}

	errataChanges, err := reconcileErrataTags(ctx, deps.Store, doc, entry, errata)
	if err != nil {
		return nil, err
	}
	changes = append(changes, errataChanges...)

	if len(changes) == 0 {
		return nil, nil
	}

	events = append(events, &docs.DocEvent{
		Rev:  doc.Rev,
		By:   docs.SystemActor,
		Type: docs.EventSyncFromRFCEditor,
		Time: now,
		Desc: fmt.Sprintf("Received changes through RFC Editor sync (%s)", strings.Join(changes, ", ")),
	})

	if err := deps.Store.SaveWithHistory(ctx, doc, events); err != nil {
		return nil, err
	}

	l.Debug("Synced document from RFC index", zap.Int("changes", len(changes)))

	return &IndexSyncResult{Doc: doc, Changes: changes, Published: published}, nil
}

// synthesizePublicationTime reconstructs a plausible publication timestamp
// from the feed's month/year. The candidate is day 1 of the published month
// in the reference zone. When the candidate is more than 60 days from now it
// is accepted as-is; otherwise we walk day by day from now toward the
// candidate until landing inside its month. The feed only carries month/year
// precision, so this approximates the real publication day when the sync
// runs close to publication.
func synthesizePublicationTime(published, now time.Time, zone *time.Location) time.Time {
	d := time.Date(published.Year(), published.Month(), 1, 0, 0, 0, 0, zone)
	synthesized := now.In(zone)

	diff := d.Sub(synthesized)
	if diff > 60*24*time.Hour || diff < -60*24*time.Hour {
		return d
	}

	direction := 1
	if diff < 0 {
		direction = -1
	}
	for synthesized.Month() != d.Month() || synthesized.Year() != d.Year() {
		synthesized = synthesized.AddDate(0, 0, direction)
	}
	return synthesized
}

// resolveRelationAliases normalizes cross-reference identifiers to alias
// names. Legacy prefixes are translated through the alias chain to RFC
// aliases; everything else resolves directly. Duplicates are dropped,
// first occurrence wins.
func resolveRelationAliases(ctx context.Context, store Store, ids []string) ([]string, error) {
	var res []string
	seen := make(map[string]struct{})

	for _, x := range ids {
		var found []string

		prefix := ""
		if len(x) >= 3 {
			prefix = x[:3]
		}
		switch prefix {
		case "NIC", "IEN", "STD", "RTR":
			// Translate to RFCs we can handle sensibly; otherwise the
			// reference is ignored.
			aliases, err := store.RFCAliasesFor(ctx, strings.ToLower(x))
			if err != nil {
				return nil, err
			}
			found = aliases
		default:
			lower := strings.ToLower(x)
			exists, err := store.AliasExists(ctx, lower)
			if err != nil {
				return nil, err
			}
			if exists {
				found = []string{lower}
			}
		}

		for _, a := range found {
			if _, dup := seen[a]; !dup {
				seen[a] = struct{}{}
				res = append(res, a)
			}
		}
	}
	return res, nil
}

// reconcileErrataTags applies the errata/verified-errata tag rules from the
// feed flag and the externally supplied errata dataset.
func reconcileErrataTags(ctx context.Context, store Store, doc *docs.Document, entry IndexEntry, errata map[string][]Erratum) ([]string, error) {
	var changes []string

	docErrata := errata[fmt.Sprintf("RFC%04d", entry.RFCNumber)]

	allRejected := len(docErrata) > 0
	for _, er := range docErrata {
		if er.Status != ErrataRejected {
			allRejected = false
			break
		}
	}

	if entry.HasErrata && !allRejected {
		hasTag, err := store.HasTag(ctx, doc, docs.TagErrata)
		if err != nil {
			return nil, err
		}
		if !hasTag {
			if err := store.AddTag(ctx, doc, docs.TagErrata); err != nil {
				return nil, err
			}
			changes = append(changes, "added Errata tag")
		}

		hasVerified := false
		for _, er := range docErrata {
			if er.Status == ErrataVerified {
				hasVerified = true
				break
			}
		}
		if hasVerified {
			hasTag, err := store.HasTag(ctx, doc, docs.TagVerifiedErrata)
			if err != nil {
				return nil, err
			}
			if !hasTag {
				if err := store.AddTag(ctx, doc, docs.TagVerifiedErrata); err != nil {
					return nil, err
				}
				changes = append(changes, "added Verified Errata tag")
			}
		}
		return changes, nil
	}

	hasTag, err := store.HasTag(ctx, doc, docs.TagErrata)
	if err != nil {
		return nil, err
	}
	if hasTag {
		if err := store.RemoveTags(ctx, doc, docs.TagErrata); err != nil {
			return nil, err
		}
		if allRejected {
			changes = append(changes, "removed Errata tag (all errata rejected)")
		} else {
			changes = append(changes, "removed Errata tag")
		}
	}

	hasVerified, err := store.HasTag(ctx, doc, docs.TagVerifiedErrata)
	if err != nil {
		return nil, err
	}
	if hasVerified {
		if err := store.RemoveTags(ctx, doc, docs.TagVerifiedErrata); err != nil {
			return nil, err
		}
		changes = append(changes, "removed Verified Errata tag")
	}

	return changes, nil
}
