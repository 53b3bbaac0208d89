package mq

import (
	"log/slog"
	"strings"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

// InitBy builds a single Client from a module config (spec §4.6 item 1).
func InitBy(cfg fwconfig.MQModuleConfig, logger *slog.Logger) (*Client, error) {
	return New(cfg, logger)
}

// InitByConf builds default + every named module's Client (spec §4.6 item 2).
func InitByConf(fam fwconfig.FamilyConfig[fwconfig.MQModuleConfig], logger *slog.Logger) (map[string]*Client, error) {
	out := make(map[string]*Client, len(fam.Modules)+1)
	def, err := InitBy(fam.Default, logger)
	if err != nil {
		return nil, err
	}
	out[""] = def
	for code, cfg := range fam.Modules {
		inst, err := InitBy(cfg, logger)
		if err != nil {
			return nil, err
		}
		out[strings.ToLower(code)] = inst
	}
	return out, nil
}
