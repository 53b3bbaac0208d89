package fwconfig

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode decodes the custom config sub-tree for module code into T, falling
// back to the "" (default) module if code has no entry, and finally to the
// single cs tree if neither csm[code] nor csm[""] exists (spec §4.1
// cs_config: "with fallback to '' if not present; panics only if neither
// exists"). The Go rendition returns an error instead of panicking — a
// programmer error surfaced as an error is strictly more useful than a
// crash, and every caller already threads errors through the module-scoped
// view.
func (c CustomConfig) Decode(code string, out any) error {
	if raw, ok := c.CSM[code]; ok {
		return decodeInto(raw, out)
	}
	if raw, ok := c.CSM[""]; ok {
		return decodeInto(raw, out)
	}
	if c.CS != nil {
		return decodeInto(c.CS, out)
	}
	return fmt.Errorf("no custom config found for module %q and no default cs tree is configured", code)
}

func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
