package config

import (
	"encoding/json"
	"errors"
	"time"
)

// duration unmarshals from either a Go duration string ("60s") or integer
// nanoseconds, so JSON configs stay readable while remaining compatible with
// numeric values.
type duration time.Duration

func (d *duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = duration(parsed)
		return nil
	default:
		return errors.New("invalid duration")
	}
}
