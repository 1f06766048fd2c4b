package image

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/roomfinder/internal/db"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
)

// payloadField holds the full JSON payload; facet fields are duplicated as TAGs for pre-filtering.
const payloadField = "payload"

var tagFields = []string{
	filter.FieldRoomType,
	filter.FieldDesignTheme,
	filter.FieldBudgetCategory,
	filter.FieldSpaceType,
}

// toHash flattens a record into HSET fields.
func toHash(rec *image.Record) (map[string]string, error) {
	body, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload %s: %w", rec.ID, err)
	}

	fields := map[string]string{
		payloadField:               string(body),
		filter.FieldRoomType:       tagValue(rec.Payload.RoomType),
		filter.FieldDesignTheme:    tagValue(rec.Payload.DesignTheme),
		filter.FieldBudgetCategory: tagValue(rec.Payload.BudgetCategory),
		filter.FieldSpaceType:      tagValue(rec.Payload.SpaceType),
	}
	for name, vec := range rec.Vectors {
		fields[name] = db.EncodeVector(vec)
	}
	return fields, nil
}

func tagValue(s string) string {
	if s == "" {
		return image.Unknown
	}
	return strings.ToLower(s)
}

// fromFields decodes a hash back into a Payload.
// Hashes written by older loaders may lack the JSON blob; the TAG fields are used then.
func fromFields(fields map[string]string) (image.Payload, error) {
	raw := make(map[string]any)
	if body, ok := fields[payloadField]; ok && body != "" {
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return image.Payload{}, fmt.Errorf("decode payload: %w", err)
		}
	}
	for _, f := range tagFields {
		if _, ok := raw[f]; !ok {
			if v, ok := fields[f]; ok {
				raw[f] = v
			}
		}
	}
	return image.Normalize(raw), nil
}
