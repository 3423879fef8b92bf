package domain

import "time"

// Post represents an indexed BlueSky post stored in our database.
type Post struct {
	// URI is the AT-URI of the post (e.g. at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b).
	URI string

	// AuthorDID is the DID of the post's author.
	AuthorDID string

	// CID is the content identifier of the record.
	CID string

	// IndexedAt is when we indexed this post.
	IndexedAt time.Time
}

// PostRecord is the decoded content of an app.bsky.feed.post record, as
// found inside a firehose commit block.
type PostRecord struct {
	// Text is the post body.
	Text string

	// Langs is the list of language tags set by the author's client.
	Langs []string

	// Reply is set when the post is a reply to another post.
	Reply *ReplyRef
}

// ReplyRef points at the parent and root of a reply chain.
type ReplyRef struct {
	Root   StrongRef
	Parent StrongRef
}

// StrongRef is a reference to a specific version of a record.
type StrongRef struct {
	URI string
	CID string
}

// LikeRecord is the decoded content of an app.bsky.feed.like record.
type LikeRecord struct {
	Subject StrongRef
}

// FollowRecord is the decoded content of an app.bsky.graph.follow record.
type FollowRecord struct {
	Subject string // DID of the followed account
}
