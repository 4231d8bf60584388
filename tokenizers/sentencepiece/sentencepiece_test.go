package sentencepiece

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/labeledtext/tokenizers/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// Piece types of the SentencePiece ModelProto.
const (
	pieceNormal  = 1
	pieceUnknown = 2
	pieceControl = 3
)

type testPiece struct {
	piece     string
	score     float32
	pieceType uint64
}

// writeModel writes a minimal BPE SentencePiece ModelProto with the given pieces, ids following their order.
func writeModel(t *testing.T, pieces []testPiece) string {
	var b []byte
	for _, p := range pieces {
		var msg []byte
		msg = protowire.AppendTag(msg, 1, protowire.BytesType)
		msg = protowire.AppendString(msg, p.piece)
		msg = protowire.AppendTag(msg, 2, protowire.Fixed32Type)
		msg = protowire.AppendFixed32(msg, math.Float32bits(p.score))
		msg = protowire.AppendTag(msg, 3, protowire.VarintType)
		msg = protowire.AppendVarint(msg, p.pieceType)
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}

	// TrainerSpec: model_type = BPE.
	var trainerSpec []byte
	trainerSpec = protowire.AppendTag(trainerSpec, 3, protowire.VarintType)
	trainerSpec = protowire.AppendVarint(trainerSpec, 2)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, trainerSpec)

	// NormalizerSpec: no dummy prefix, keep whitespaces.
	var normalizerSpec []byte
	for _, field := range []protowire.Number{3, 4} {
		normalizerSpec = protowire.AppendTag(normalizerSpec, field, protowire.VarintType)
		normalizerSpec = protowire.AppendVarint(normalizerSpec, 0)
	}
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, normalizerSpec)

	modelPath := filepath.Join(t.TempDir(), ModelFile)
	require.NoError(t, os.WriteFile(modelPath, b, 0644))
	return modelPath
}

var testPieces = []testPiece{
	{"<pad>", 0, pieceControl}, // 0
	{"<eos>", 0, pieceControl}, // 1
	{"<bos>", 0, pieceControl}, // 2
	{"<unk>", 0, pieceUnknown}, // 3
	{"h", 0, pieceNormal},      // 4
	{"i", 0, pieceNormal},      // 5
	{"hi", 1, pieceNormal},     // 6
	{"▁", 0, pieceNormal},      // 7
}

func TestEncodeDecode(t *testing.T) {
	config := &api.Config{TokenizerClass: "GemmaTokenizer", TruncationSide: "left"}
	tok, err := NewFromModel(writeModel(t, testPieces), config)
	require.NoError(t, err)
	assert.Same(t, config, tok.Config())
	assert.Equal(t, len(testPieces), tok.Info.VocabularySize)

	assert.Equal(t, []int{6}, tok.Encode("hi"))
	assert.Equal(t, []int{6, 7, 6}, tok.Encode("hi hi"))
	assert.Equal(t, []int{4, 3}, tok.Encode("hx"))
	assert.Equal(t, "hi hi", tok.Decode([]int{2, 6, 7, 6, 1}))
}

func TestSpecialTokenID(t *testing.T) {
	tok, err := NewFromModel(writeModel(t, testPieces), nil)
	require.NoError(t, err)
	for token, want := range map[api.SpecialToken]int{
		api.TokPad:                 0,
		api.TokEndOfSentence:       1,
		api.TokBeginningOfSentence: 2,
		api.TokUnknown:             3,
	} {
		id, err := tok.SpecialTokenID(token)
		require.NoError(t, err, "token %s", token)
		assert.Equal(t, want, id, "token %s", token)
	}
	_, err = tok.SpecialTokenID(api.TokMask)
	assert.Error(t, err)

	// Models without a pad piece report it as missing.
	tok, err = NewFromModel(writeModel(t, testPieces[1:]), nil)
	require.NoError(t, err)
	_, err = tok.SpecialTokenID(api.TokPad)
	assert.Error(t, err)
}

func TestNewFromModelErrors(t *testing.T) {
	_, err := NewFromModel(filepath.Join(t.TempDir(), ModelFile), nil)
	assert.Error(t, err)

	modelPath := filepath.Join(t.TempDir(), ModelFile)
	require.NoError(t, os.WriteFile(modelPath, []byte("not a protobuf \xff\xff\xff"), 0644))
	_, err = NewFromModel(modelPath, nil)
	assert.Error(t, err)

	// No unknown piece.
	_, err = NewFromModel(writeModel(t, testPieces[4:]), nil)
	assert.Error(t, err)
}

func TestSliceMap(t *testing.T) {
	assert.Equal(t, []int{2, 4, 6}, sliceMap([]int{1, 2, 3}, func(e int) int { return 2 * e }))
	assert.Empty(t, sliceMap([]string{}, func(e string) int { return len(e) }))
}
