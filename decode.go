package conform

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeInto copies a normalized document into out, honouring
// `conform:"name"` struct tags.
func decodeInto(doc map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "conform",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
