package atfirehose

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/vanrijn/nederlandskie/internal/domain"
)

type rawStrongRef struct {
	URI string   `cbor:"uri"`
	CID cbor.Tag `cbor:"cid"`
}

type rawReplyRef struct {
	Root   rawStrongRef `cbor:"root"`
	Parent rawStrongRef `cbor:"parent"`
}

type rawPostRecord struct {
	Type  string       `cbor:"$type"`
	Text  string       `cbor:"text"`
	Langs []string     `cbor:"langs"`
	Reply *rawReplyRef `cbor:"reply"`
}

type rawLikeRecord struct {
	Type    string       `cbor:"$type"`
	Subject rawStrongRef `cbor:"subject"`
}

type rawFollowRecord struct {
	Type    string `cbor:"$type"`
	Subject string `cbor:"subject"`
}

type rawProfileRecord struct {
	Type        string `cbor:"$type"`
	DisplayName string `cbor:"displayName"`
	Description string `cbor:"description"`
}

// DecodeError names the first required field missing from a record block.
// cbor.Unmarshal zero-fills absent map keys, so a required field has to be
// checked for presence explicitly rather than inferred from its zero value.
type DecodeError struct {
	RecordType string
	Field      string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s record: missing required field %q", e.RecordType, e.Field)
}

// requireFields unmarshals block as a generic map and fails with a
// *DecodeError naming the first of fields not present as a key.
func requireFields(block []byte, recordType string, fields ...string) error {
	var raw map[string]cbor.RawMessage
	if err := cbor.Unmarshal(block, &raw); err != nil {
		return fmt.Errorf("unmarshal %s record: %w", recordType, err)
	}
	for _, field := range fields {
		if _, ok := raw[field]; !ok {
			return &DecodeError{RecordType: recordType, Field: field}
		}
	}
	return nil
}

func decodeStrongRef(raw rawStrongRef) (domain.StrongRef, error) {
	c, err := decodeLink(raw.CID)
	if err != nil {
		return domain.StrongRef{}, fmt.Errorf("decode strong ref cid: %w", err)
	}
	return domain.StrongRef{URI: raw.URI, CID: c.String()}, nil
}

// DecodePostRecord decodes an app.bsky.feed.post record from its raw block
// bytes.
func DecodePostRecord(block []byte) (domain.PostRecord, error) {
	if err := requireFields(block, "post", "text"); err != nil {
		return domain.PostRecord{}, err
	}

	var raw rawPostRecord
	if err := cbor.Unmarshal(block, &raw); err != nil {
		return domain.PostRecord{}, fmt.Errorf("unmarshal post record: %w", err)
	}

	record := domain.PostRecord{Text: raw.Text, Langs: raw.Langs}
	if raw.Reply != nil {
		root, err := decodeStrongRef(raw.Reply.Root)
		if err != nil {
			return domain.PostRecord{}, fmt.Errorf("decode reply root: %w", err)
		}
		parent, err := decodeStrongRef(raw.Reply.Parent)
		if err != nil {
			return domain.PostRecord{}, fmt.Errorf("decode reply parent: %w", err)
		}
		record.Reply = &domain.ReplyRef{Root: root, Parent: parent}
	}

	return record, nil
}

// DecodeLikeRecord decodes an app.bsky.feed.like record from its raw block
// bytes.
func DecodeLikeRecord(block []byte) (domain.LikeRecord, error) {
	if err := requireFields(block, "like", "subject"); err != nil {
		return domain.LikeRecord{}, err
	}

	var raw rawLikeRecord
	if err := cbor.Unmarshal(block, &raw); err != nil {
		return domain.LikeRecord{}, fmt.Errorf("unmarshal like record: %w", err)
	}
	subject, err := decodeStrongRef(raw.Subject)
	if err != nil {
		return domain.LikeRecord{}, fmt.Errorf("decode like subject: %w", err)
	}
	return domain.LikeRecord{Subject: subject}, nil
}

// DecodeFollowRecord decodes an app.bsky.graph.follow record from its raw
// block bytes.
func DecodeFollowRecord(block []byte) (domain.FollowRecord, error) {
	if err := requireFields(block, "follow", "subject"); err != nil {
		return domain.FollowRecord{}, err
	}

	var raw rawFollowRecord
	if err := cbor.Unmarshal(block, &raw); err != nil {
		return domain.FollowRecord{}, fmt.Errorf("unmarshal follow record: %w", err)
	}
	return domain.FollowRecord{Subject: raw.Subject}, nil
}

// DecodeProfileRecord decodes an app.bsky.actor.profile record from its raw
// block bytes.
func DecodeProfileRecord(block []byte) (domain.ProfileRecord, error) {
	var raw rawProfileRecord
	if err := cbor.Unmarshal(block, &raw); err != nil {
		return domain.ProfileRecord{}, fmt.Errorf("unmarshal profile record: %w", err)
	}
	return domain.ProfileRecord{DisplayName: raw.DisplayName, Description: raw.Description}, nil
}
