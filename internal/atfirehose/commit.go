package atfirehose

import (
	"fmt"
	"strings"

	"github.com/vanrijn/nederlandskie/internal/domain"
)

// ExtractOperations turns a decoded commit frame into the domain operations
// it names. Create/update ops whose collection isn't one we index (or whose
// block went missing, e.g. a #tooBig commit) are skipped rather than failing
// the whole commit: a firehose consumer has to be tolerant of the records it
// doesn't understand.
func ExtractOperations(commit *CommitFrame) ([]domain.Operation, error) {
	blocks, err := ReadBlocks(commit.Blocks)
	if err != nil {
		return nil, fmt.Errorf("read commit blocks: %w", err)
	}

	ops := make([]domain.Operation, 0, len(commit.Ops))
	for _, op := range commit.Ops {
		uri := fmt.Sprintf("at://%s/%s", commit.Repo, op.Path)
		collection, _, _ := strings.Cut(op.Path, "/")

		switch op.Action {
		case "create", "update":
			if op.Cid == nil {
				continue
			}
			block, ok := blocks[op.Cid.String()]
			if !ok {
				continue
			}

			operation, err := decodeCreateOperation(collection, uri, op.Cid.String(), commit.Repo, block)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", uri, err)
			}
			if operation != nil {
				ops = append(ops, operation)
			}

		case "delete":
			operation := decodeDeleteOperation(collection, uri)
			if operation != nil {
				ops = append(ops, operation)
			}
		}
	}

	return ops, nil
}

func decodeCreateOperation(collection, uri, cidStr, authorDID string, block []byte) (domain.Operation, error) {
	switch collection {
	case "app.bsky.feed.post":
		record, err := DecodePostRecord(block)
		if err != nil {
			return nil, err
		}
		return domain.CreatePost{URI: uri, CID: cidStr, AuthorDID: authorDID, Record: record}, nil

	case "app.bsky.feed.like":
		record, err := DecodeLikeRecord(block)
		if err != nil {
			return nil, err
		}
		return domain.CreateLike{URI: uri, CID: cidStr, AuthorDID: authorDID, Record: record}, nil

	case "app.bsky.graph.follow":
		record, err := DecodeFollowRecord(block)
		if err != nil {
			return nil, err
		}
		return domain.CreateFollow{URI: uri, CID: cidStr, AuthorDID: authorDID, Record: record}, nil

	default:
		return nil, nil
	}
}

func decodeDeleteOperation(collection, uri string) domain.Operation {
	switch collection {
	case "app.bsky.feed.post":
		return domain.DeletePost{URI: uri}
	case "app.bsky.feed.like":
		return domain.DeleteLike{URI: uri}
	case "app.bsky.graph.follow":
		return domain.DeleteFollow{URI: uri}
	default:
		return nil
	}
}
