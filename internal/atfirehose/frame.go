// Package atfirehose decodes and subscribes to the AT Protocol firehose:
// com.atproto.sync.subscribeRepos. Each websocket message is two
// concatenated DAG-CBOR values (a small header, then a type-specific body),
// and #commit bodies carry a CARv1 block archive holding the actual record
// data referenced by the commit's operations.
package atfirehose

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
)

// frameHeader is the first CBOR value in every firehose message.
type frameHeader struct {
	Op int64  `cbor:"op"`
	T  string `cbor:"t"`
}

// errorFrameBody is the second CBOR value when a frame's header has op -1.
type errorFrameBody struct {
	Error   string `cbor:"error"`
	Message string `cbor:"message"`
}

// commitFrameBody is the second CBOR value when a frame's header has
// t == "#commit". Field names mirror com.atproto.sync.subscribeRepos#commit.
type commitFrameBody struct {
	Seq    int64      `cbor:"seq"`
	Rebase bool       `cbor:"rebase"`
	TooBig bool       `cbor:"tooBig"`
	Repo   string     `cbor:"repo"`
	Commit cbor.Tag   `cbor:"commit"`
	Rev    string     `cbor:"rev"`
	Since  *string    `cbor:"since"`
	Blocks []byte     `cbor:"blocks"`
	Ops    []repoOp   `cbor:"ops"`
	Blobs  []cbor.Tag `cbor:"blobs"`
	Time   string     `cbor:"time"`
}

// repoOp is one entry in a commit's "ops" array.
type repoOp struct {
	Action string    `cbor:"action"`
	Path   string    `cbor:"path"`
	Cid    *cbor.Tag `cbor:"cid"`
}

// ErrorFrame is the decoded body of an error frame (header op == -1).
type ErrorFrame struct {
	Error   string
	Message string
}

// CommitFrame is the decoded body of a #commit frame, with CID links
// resolved to cid.Cid and the carried block archive left as raw bytes for
// ReadBlocks to parse.
type CommitFrame struct {
	Seq    int64
	TooBig bool
	Repo   string
	Commit cid.Cid
	Rev    string
	Blocks []byte
	Ops    []RepoOp
	Time   time.Time
}

// RepoOp is one repo mutation named in a commit, before block resolution.
type RepoOp struct {
	Action string // "create", "update", or "delete"
	Path   string // "<collection>/<rkey>"
	Cid    *cid.Cid
}

// Frame is a single decoded firehose message. Exactly one of Commit or
// Error is set for frames this decoder understands; both are nil for frame
// types we don't act on (#identity, #account, #info, #sync, ...).
type Frame struct {
	Op     int64
	Type   string
	Commit *CommitFrame
	Error  *ErrorFrame
}

// DecodeFrame decodes a single firehose websocket message. Unrecognized
// frame types decode successfully with Commit and Error left nil so callers
// can skip them without treating them as errors.
func DecodeFrame(data []byte) (*Frame, error) {
	dec := cbor.NewDecoder(bytes.NewReader(data))

	var header frameHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode frame header: %w", err)
	}

	frame := &Frame{Op: header.Op, Type: header.T}

	switch {
	case header.Op == -1:
		var body errorFrameBody
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decode error frame body: %w", err)
		}
		frame.Error = &ErrorFrame{Error: body.Error, Message: body.Message}

	case header.T == "#commit":
		var body commitFrameBody
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decode commit frame body: %w", err)
		}
		commit, err := decodeCommitBody(body)
		if err != nil {
			return nil, fmt.Errorf("decode commit %d: %w", body.Seq, err)
		}
		frame.Commit = commit
	}

	return frame, nil
}

func decodeCommitBody(body commitFrameBody) (*CommitFrame, error) {
	commitCid, err := decodeLink(body.Commit)
	if err != nil {
		return nil, fmt.Errorf("decode commit cid: %w", err)
	}

	ops := make([]RepoOp, len(body.Ops))
	for i, op := range body.Ops {
		ro := RepoOp{Action: op.Action, Path: op.Path}
		if op.Cid != nil {
			c, err := decodeLink(*op.Cid)
			if err != nil {
				return nil, fmt.Errorf("decode op %d cid: %w", i, err)
			}
			ro.Cid = &c
		}
		ops[i] = ro
	}

	ts, err := time.Parse(time.RFC3339, body.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return &CommitFrame{
		Seq:    body.Seq,
		TooBig: body.TooBig,
		Repo:   body.Repo,
		Commit: commitCid,
		Rev:    body.Rev,
		Blocks: body.Blocks,
		Ops:    ops,
		Time:   ts,
	}, nil
}

// decodeLink resolves a DAG-CBOR IPLD link (CBOR tag 42, a byte string with
// a leading identity-multibase prefix byte) to a cid.Cid.
func decodeLink(tag cbor.Tag) (cid.Cid, error) {
	if tag.Number != 42 {
		return cid.Undef, fmt.Errorf("unsupported CBOR tag %d for IPLD link", tag.Number)
	}
	data, ok := tag.Content.([]byte)
	if !ok {
		return cid.Undef, fmt.Errorf("link content is %T, want []byte", tag.Content)
	}
	if len(data) == 0 || data[0] != 0x00 {
		return cid.Undef, fmt.Errorf("link missing identity multibase prefix")
	}
	c, err := cid.Cast(data[1:])
	if err != nil {
		return cid.Undef, fmt.Errorf("cast cid: %w", err)
	}
	return c, nil
}
