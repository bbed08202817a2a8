package rfced

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"doc-sync/core/logger"
	"doc-sync/core/timeutil"
	"doc-sync/feature/docs"

	"go.uber.org/zap"
)

// The bolded portion of a state-change description, spliced into an AUTH48
// hyperlink when the queue entry carries one.
var auth48SpliceRe = regexp.MustCompile(`(<b>.*</b>)`)

// QueueDeps bundles the capabilities and lookup tables for one queue
// reconciliation pass. The maps are resolved once per pass and treated as
// immutable.
type QueueDeps struct {
	Store      Store
	Mailer     Mailer
	Clock      timeutil.Clock
	Logger     *zap.Logger
	StateCodes map[string]string
	MailTo     string
}

// UpdateDraftsFromQueue merges parsed queue entries into the document
// records. It returns the set of changed document names plus warnings.
//
// Unknown documents and unrecognized state codes degrade to warnings and
// skip the entry; store failures abort the pass.
func UpdateDraftsFromQueue(ctx context.Context, deps QueueDeps, entries []QueueEntry) (map[string]struct{}, []string, error) {
	changed := make(map[string]struct{})
	var warnings []string

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.DraftName)
	}

	inDB, err := deps.Store.DraftsByNames(ctx, names)
	if err != nil {
		return changed, warnings, err
	}

	for _, entry := range entries {
		doc, ok := inDB[entry.DraftName]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown document %s", entry.DraftName))
			continue
		}

		nextState, ok := deps.StateCodes[entry.State]
		if entry.State == "" || !ok {
			warnings = append(warnings, fmt.Sprintf("unknown state '%s' for %s", entry.State, entry.DraftName))
			continue
		}

		l := logger.WithDocument(deps.Logger, doc.Name)

		prevState, err := deps.Store.GetState(ctx, doc, docs.StateTypeRFCEditor)
		if err != nil {
			return changed, warnings, err
		}

		var events []*docs.DocEvent
		now := deps.Clock.Now()

		// First contact: the announcement reached the RFC Editor.
		if err := func() error {
			approval, err := deps.Store.GetState(ctx, doc, docs.StateTypeIESG)
			if err != nil {
				return err
			}
			if approval != docs.StateAnnounced || prevState != "" {
				return nil
			}
			seen, err := deps.Store.HasEvent(ctx, doc, docs.EventReceivedAnnouncement)
			if err != nil || seen {
				return err
			}

			events = append(events, &docs.DocEvent{
				Rev:  doc.Rev,
				By:   docs.SystemActor,
				Type: docs.EventReceivedAnnouncement,
				Time: now,
				Desc: "Announcement was received by RFC Editor",
			})

			mailErr := deps.Mailer.SendMail(ctx, deps.MailTo,
				fmt.Sprintf("%s in RFC Editor queue", doc.Name),
				fmt.Sprintf("The announcement for %s has been received by the RFC Editor.", doc.Name))
			if mailErr != nil {
				// Mail delivery is best effort; the transition still happens.
				l.Warn("Failed to send RFC Editor queue notification", zap.Error(mailErr))
			}

			// The approval track moves into the RFC Editor queue.
			if err := deps.Store.SetState(ctx, doc, docs.StateTypeIESG, docs.StateRFCQueue); err != nil {
				return err
			}
			events = append(events, docs.AddStateChangeEvent(doc, docs.SystemActor,
				docs.StateTypeIESG, docs.StateAnnounced, docs.StateRFCQueue, now))
			if e := docs.UpdateActionHolders(doc, docs.SystemActor, docs.StateRFCQueue, now); e != nil {
				events = append(events, e)
			}
			changed[doc.Name] = struct{}{}
			return nil
		}(); err != nil {
			return changed, warnings, err
		}

		// Editorial-queue state change, conditional on an actual change.
		if prevState != nextState {
			if err := deps.Store.SetState(ctx, doc, docs.StateTypeRFCEditor, nextState); err != nil {
				return changed, warnings, err
			}

			e := docs.AddStateChangeEvent(doc, docs.SystemActor,
				docs.StateTypeRFCEditor, prevState, nextState, now)

			if entry.Auth48URL != "" {
				e.Desc = auth48SpliceRe.ReplaceAllString(e.Desc,
					fmt.Sprintf(`<a href="%s">$1</a>`, entry.Auth48URL))
				// Create or update the auth48 URL whether or not this is a
				// state expected to have one.
				if err := deps.Store.UpsertDocURL(ctx, doc, docs.URLTagAuth48, entry.Auth48URL); err != nil {
					return changed, warnings, err
				}
			} else {
				// Remove any existing auth48 URL when an update does not
				// have one.
				if err := deps.Store.DeleteDocURL(ctx, doc, docs.URLTagAuth48); err != nil {
					return changed, warnings, err
				}
			}

			events = append(events, e)
			changed[doc.Name] = struct{}{}
		}

		// Tag reconciliation, order-independent set comparison.
		current, err := deps.Store.Tags(ctx, doc)
		if err != nil {
			return changed, warnings, err
		}
		if !sameTagSet(current, entry.Tags) {
			if err := deps.Store.SetTags(ctx, doc, entry.Tags); err != nil {
				return changed, warnings, err
			}
			changed[doc.Name] = struct{}{}
		}

		if len(events) > 0 {
			if err := deps.Store.SaveWithHistory(ctx, doc, events); err != nil {
				return changed, warnings, err
			}
		}
	}

	// Drafts that left the RFC Editor queue: clear tags and unset the
	// editorial state. No history entry here - most likely something else
	// already explains what happened.
	stale, err := deps.Store.StaleQueueDocuments(ctx, names)
	if err != nil {
		return changed, warnings, err
	}
	for _, doc := range stale {
		if err := deps.Store.RemoveTags(ctx, doc, docs.TagIANA, docs.TagRef); err != nil {
			return changed, warnings, err
		}
		if err := deps.Store.UnsetState(ctx, doc, docs.StateTypeRFCEditor); err != nil {
			return changed, warnings, err
		}
		changed[doc.Name] = struct{}{}
	}

	return changed, warnings, nil
}

// sameTagSet compares two tag slices as sets.
func sameTagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
