package objstore

import (
	"context"
	"strings"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

// InitBy builds a single Client from a module config (spec §4.6 item 1).
func InitBy(ctx context.Context, cfg fwconfig.OSModuleConfig) (*Client, error) {
	return New(ctx, cfg)
}

// InitByConf builds default + every named module's Client (spec §4.6 item 2).
func InitByConf(ctx context.Context, fam fwconfig.FamilyConfig[fwconfig.OSModuleConfig]) (map[string]*Client, error) {
	out := make(map[string]*Client, len(fam.Modules)+1)
	def, err := InitBy(ctx, fam.Default)
	if err != nil {
		return nil, err
	}
	out[""] = def
	for code, cfg := range fam.Modules {
		inst, err := InitBy(ctx, cfg)
		if err != nil {
			return nil, err
		}
		out[strings.ToLower(code)] = inst
	}
	return out, nil
}
