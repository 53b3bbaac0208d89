package mail

import (
	"testing"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

func TestInitByConfBuildsDefaultAndModules(t *testing.T) {
	fam := fwconfig.FamilyConfig[fwconfig.MailModuleConfig]{
		Default: fwconfig.MailModuleConfig{Host: "smtp.default", Port: 587},
		Modules: map[string]fwconfig.MailModuleConfig{
			"Notifications": {Host: "smtp.notify", Port: 25},
		},
	}

	out, err := InitByConf(fam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[""]; !ok {
		t.Error("expected a default instance")
	}
	if _, ok := out["notifications"]; !ok {
		t.Errorf("expected lower-cased module key, got %#v", out)
	}
}

func TestNewCarriesDefaultFrom(t *testing.T) {
	c := New(fwconfig.MailModuleConfig{Host: "smtp.local", Port: 25, DefaultFrom: "noreply@example.com"})
	if c.defaultFrom != "noreply@example.com" {
		t.Errorf("expected defaultFrom carried from config, got %q", c.defaultFrom)
	}
}
