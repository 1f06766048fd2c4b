package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// maxLineBytes bounds one annotation line.
const maxLineBytes = 4 << 20

// Annotation is one decoded line of annotation output.
type Annotation struct {
	Line int
	Raw  map[string]any
	Err  error
}

// ReadJSONL decodes one JSON object per line. Blank lines are ignored; a malformed line
// yields an Annotation with Err set instead of aborting the read.
func ReadJSONL(r io.Reader) ([]Annotation, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []Annotation
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(b, &raw); err != nil {
			out = append(out, Annotation{Line: line, Err: fmt.Errorf("line %d: %w", line, err)})
			continue
		}
		out = append(out, Annotation{Line: line, Raw: raw})
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read annotations: %w", err)
	}
	return out, nil
}
