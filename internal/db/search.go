package db

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
)

// ScoreField is the pseudo-field FT.SEARCH uses for KNN distance.
const ScoreField = "__vector_score"

// KNNQuery is the input for vector similarity search over one named vector field.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// ListQuery is the input for an unranked listing of indexed records.
type ListQuery struct {
	IndexName    string
	KeyPrefix    string
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is a similarity in [0,1] for KNN, zero for listings.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector packs a float32 vector into the little-endian blob stored in hashes and sent as KNN params.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector unpacks a blob produced by EncodeVector.
func DecodeVector(s string) ([]float32, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(s))
	}
	out := make([]float32, len(s)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out, nil
}
