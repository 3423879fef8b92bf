package domain

import "time"

// Operation is one repo mutation extracted from a single firehose commit.
// It's a closed set: CreatePost, CreateLike, CreateFollow, DeletePost,
// DeleteLike, DeleteFollow. Each concrete type below implements it and the
// indexing processor dispatches on a type switch rather than an enum tag,
// since that keeps each variant's payload statically typed.
type Operation interface {
	// OperationURI is the AT-URI of the record the operation touches.
	OperationURI() string
}

// CreatePost is emitted when a new app.bsky.feed.post record appears in a commit.
type CreatePost struct {
	URI       string
	CID       string
	AuthorDID string
	Record    PostRecord
}

func (o CreatePost) OperationURI() string { return o.URI }

// CreateLike is emitted when a new app.bsky.feed.like record appears in a commit.
type CreateLike struct {
	URI       string
	CID       string
	AuthorDID string
	Record    LikeRecord
}

func (o CreateLike) OperationURI() string { return o.URI }

// CreateFollow is emitted when a new app.bsky.graph.follow record appears in a commit.
type CreateFollow struct {
	URI       string
	CID       string
	AuthorDID string
	Record    FollowRecord
}

func (o CreateFollow) OperationURI() string { return o.URI }

// DeletePost is emitted when an app.bsky.feed.post record is removed.
type DeletePost struct {
	URI string
}

func (o DeletePost) OperationURI() string { return o.URI }

// DeleteLike is emitted when an app.bsky.feed.like record is removed.
type DeleteLike struct {
	URI string
}

func (o DeleteLike) OperationURI() string { return o.URI }

// DeleteFollow is emitted when an app.bsky.graph.follow record is removed.
type DeleteFollow struct {
	URI string
}

func (o DeleteFollow) OperationURI() string { return o.URI }

// CommitDetails is everything the indexing processor needs from a single
// #commit frame: its sequence number (used for cursor bookkeeping) and the
// operations extracted from its block archive.
type CommitDetails struct {
	Seq        int64
	Repo       string
	Time       time.Time
	Operations []Operation
}
