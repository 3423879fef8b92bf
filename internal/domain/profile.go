package domain

import "time"

// Profile tracks a BlueSky account we've seen an indexed post from, plus
// whatever the classifier has been able to determine about it.
type Profile struct {
	// DID is the account's decentralized identifier.
	DID string

	// FirstSeenAt is when we first recorded this profile.
	FirstSeenAt time.Time

	// Processed is true once the classifier has attempted to determine a
	// country for this profile, whether or not it succeeded.
	Processed bool

	// LikelyCountryOfLiving is a two-letter lowercase country code, "xx" if
	// the classifier could not determine one, or nil if the profile hasn't
	// been processed yet.
	LikelyCountryOfLiving *string
}

// ProfileRecord is the decoded content of an app.bsky.actor.profile record.
type ProfileRecord struct {
	DisplayName string
	Description string
}
