package docs

import (
	"fmt"
	"time"
)

// AddStateChangeEvent builds the history entry recording a state transition.
// The new state is bolded; the queue reconciler splices the AUTH48 link
// around exactly that portion.
func AddStateChangeEvent(doc *Document, by, stateType, prev, next string, now time.Time) *DocEvent {
	desc := fmt.Sprintf("%s changed to <b>%s</b>", StateTypeLabel(stateType), next)
	if prev != "" {
		desc = fmt.Sprintf("%s from %s", desc, prev)
	}
	return &DocEvent{
		Rev:  doc.Rev,
		By:   by,
		Type: EventStateChanged,
		Time: now,
		Desc: desc,
	}
}

// UpdateActionHolders recomputes the document's action holders after a state
// transition. Once a document leaves internal hands (RFC Editor queue or
// publication) nobody inside holds an action, so the set is cleared. Returns
// nil when nothing changed.
func UpdateActionHolders(doc *Document, by, next string, now time.Time) *DocEvent {
	if next != StateRFCQueue && next != StatePub {
		return nil
	}
	if doc.ActionHolders == "" {
		return nil
	}
	doc.ActionHolders = ""
	return &DocEvent{
		Rev:  doc.Rev,
		By:   by,
		Type: EventChangedActionHolders,
		Time: now,
		Desc: "Removed all action holders (document handed off)",
	}
}
