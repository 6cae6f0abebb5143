package repository

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"rewardhub/internal/model"
)

// Decode fills out (a pointer to a model struct) from a record. Column values
// are converted loosely so the same record decodes whether it came from the
// MySQL driver, JSON or memory.
func Decode(rec model.Record, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]interface{}(rec))
}

// DecodeAll decodes every record, failing on the first bad one.
func DecodeAll[T any](recs []model.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for i, r := range recs {
		var v T
		if err := Decode(r, &v); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
