package atfirehose

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ipld/go-car"
)

// ReadBlocks parses a commit's CARv1 block archive into a map keyed by each
// block's CID string, so record decoders can look blocks up by the CIDs
// named in the commit's ops.
func ReadBlocks(carBytes []byte) (map[string][]byte, error) {
	reader, err := car.NewCarReader(bytes.NewReader(carBytes))
	if err != nil {
		return nil, fmt.Errorf("open car reader: %w", err)
	}

	blocks := make(map[string][]byte)
	for {
		blk, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read car block: %w", err)
		}
		blocks[blk.Cid().String()] = blk.RawData()
	}

	return blocks, nil
}
