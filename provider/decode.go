package provider

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeConfig decodes a factory config map into out using mapstructure
// tags. Duration strings such as "90s" are accepted.
func DecodeConfig(cfg map[string]any, out any) error {
	if cfg == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("provider: build config decoder: %w", err)
	}
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("provider: decode config: %w", err)
	}
	return nil
}
