// Package timeutil provides the wall-clock source and the fixed reference
// time zone used when reconstructing RFC publication dates.
package timeutil

import "time"

// Clock supplies the current time. Reconcilers take a Clock rather than
// calling time.Now directly so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// PublicationZone returns the fixed zone in which published_rfc event
// timestamps are interpreted as publication dates. Events were historically
// created with server-local (PST8PDT) timestamps matching the publication
// date from the RFC index, and that convention must be preserved when
// synthesizing new ones.
func PublicationZone() *time.Location {
	loc, err := time.LoadLocation("PST8PDT")
	if err != nil {
		// The zone is compiled into the tz database on every supported
		// platform; a missing entry means a broken environment.
		panic(err)
	}
	return loc
}
