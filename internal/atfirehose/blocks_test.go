package atfirehose

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	car "github.com/ipld/go-car"
	carutil "github.com/ipld/go-car/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cidAndData pairs a block's CID with its raw bytes, for building test CAR
// archives.
type cidAndData struct {
	cid  cid.Cid
	data []byte
}

// buildCAR writes a CARv1 archive containing the given blocks, keyed by CID.
func buildCAR(t *testing.T, root cidAndData, rest ...cidAndData) []byte {
	t.Helper()
	var buf bytes.Buffer

	header := &car.CarHeader{Roots: []cid.Cid{root.cid}, Version: 1}
	require.NoError(t, car.WriteHeader(header, &buf))
	require.NoError(t, carutil.LdWrite(&buf, root.cid.Bytes(), root.data))
	for _, b := range rest {
		require.NoError(t, carutil.LdWrite(&buf, b.cid.Bytes(), b.data))
	}
	return buf.Bytes()
}

func TestReadBlocks(t *testing.T) {
	c := testCID(t)
	block, err := cbor.Marshal(rawPostRecord{Type: "app.bsky.feed.post", Text: "hi"})
	require.NoError(t, err)

	carBytes := buildCAR(t, cidAndData{cid: c, data: block})

	blocks, err := ReadBlocks(carBytes)
	require.NoError(t, err)
	require.Contains(t, blocks, c.String())
	assert.Equal(t, block, blocks[c.String()])
}
