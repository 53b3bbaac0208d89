package fwconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "TARDIS"

// supportedExts mirrors the file types viper itself understands; the loader
// tries them in order for both the default and the profile file.
var supportedExts = []string{"yaml", "yml", "json", "toml"}

// Load implements spec §4.2: conf-default.<ext>, conf-<profile>.<ext>
// overlay, a TARDIS_-prefixed environment overlay, optional salt-gated
// ENC(...) decryption, and locale table initialization.
func Load(dir string) (*Tree, error) {
	return LoadWithRemote(dir, nil)
}

// LoadWithRemote is Load plus an optional remote source collected into the
// same layered tree before extraction (spec §4.2 "Remote source contract").
func LoadWithRemote(dir string, remote RemoteSource) (*Tree, error) {
	profile := os.Getenv("PROFILE")

	v := viper.New()
	v.SetConfigType("yaml")
	registerDefaults(v, "fw", reflect.TypeOf(FrameworkConfig{}))

	if dir != "" {
		defaultPath, err := findConfigFile(dir, "conf-default")
		if err != nil {
			return nil, fmt.Errorf("loading conf-default: %w", err)
		}
		v.SetConfigFile(defaultPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading conf-default: %w", err)
		}

		if profile != "" {
			profilePath, err := findConfigFile(dir, "conf-"+profile)
			if err != nil {
				return nil, fmt.Errorf("loading conf-%s: %w", profile, err)
			}
			overlay := viper.New()
			overlay.SetConfigFile(profilePath)
			if err := overlay.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading conf-%s: %w", profile, err)
			}
			if err := v.MergeConfigMap(overlay.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging conf-%s: %w", profile, err)
			}
		}
	}

	if remote != nil {
		kv, err := remote.Collect()
		if err != nil {
			return nil, fmt.Errorf("collecting remote config: %w", err)
		}
		if err := v.MergeConfigMap(unflatten(kv)); err != nil {
			return nil, fmt.Errorf("merging remote config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	tree, err := extract(v)
	if err != nil {
		return nil, err
	}

	if err := applyAdv(tree); err != nil {
		return nil, err
	}

	if dir != "" {
		if err := loadLocales(filepath.Join(dir, "locale")); err != nil {
			return nil, fmt.Errorf("loading locale tables: %w", err)
		}
	}

	return tree, nil
}

func findConfigFile(dir, base string) (string, error) {
	for _, ext := range supportedExts {
		candidate := filepath.Join(dir, base+"."+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s.{%s} found under %s", base, strings.Join(supportedExts, ","), dir)
}

func extract(v *viper.Viper) (*Tree, error) {
	tree := &Tree{}
	if err := v.Unmarshal(&tree.Custom); err != nil {
		return nil, fmt.Errorf("unmarshalling custom config: %w", err)
	}
	// Unmarshal resolves every leaf key through Get, so TARDIS_-prefixed env
	// overrides reach the fw sub-tree; UnmarshalKey("fw") would return the
	// file layer's fw map as a whole and skip them.
	var fw struct {
		FW FrameworkConfig `mapstructure:"fw"`
	}
	if err := v.Unmarshal(&fw); err != nil {
		return nil, fmt.Errorf("unmarshalling framework config: %w", err)
	}
	tree.FW = fw.FW
	if err := decryptTree(tree, tree.FW.Adv.Salt); err != nil {
		return nil, err
	}
	return tree, nil
}

// applyAdv sets the process-wide backtrace verbosity from fw.adv.backtrace
// (spec §4.2 step 4), kept under the RUST_BACKTRACE name for wire/env
// compatibility with existing deployments, while also honoring the
// Go-idiomatic GOTRACEBACK if the operator already set it explicitly.
func applyAdv(tree *Tree) error {
	if tree.FW.Adv.Backtrace != "" {
		if err := os.Setenv("RUST_BACKTRACE", tree.FW.Adv.Backtrace); err != nil {
			return fmt.Errorf("setting backtrace env: %w", err)
		}
		if _, already := os.LookupEnv("GOTRACEBACK"); !already {
			level := "single"
			if tree.FW.Adv.Backtrace == "1" || strings.EqualFold(tree.FW.Adv.Backtrace, "full") {
				level = "all"
			}
			_ = os.Setenv("GOTRACEBACK", level)
		}
	}
	return nil
}

// unflatten turns a flat "a.b.c" -> value map (the remote source contract's
// shape) into the nested map viper's MergeConfigMap expects.
func unflatten(flat map[string]any) map[string]any {
	root := map[string]any{}
	for k, v := range flat {
		parts := strings.Split(k, ".")
		cur := root
		for i, p := range parts {
			if i == len(parts)-1 {
				cur[p] = v
				continue
			}
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
	}
	return root
}
