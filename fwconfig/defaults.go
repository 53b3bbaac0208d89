package fwconfig

import (
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// registerDefaults walks t's mapstructure-tagged fields and registers a
// zero-value default for every leaf under prefix. Viper's AutomaticEnv only
// overrides keys it already "knows about" (via a config file or
// SetDefault); registering every leaf up front, the way the teacher's
// setDefaults() does field-by-field, is what lets TARDIS_-prefixed env vars
// take effect even when no config file sets that key at all.
func registerDefaults(v *viper.Viper, prefix string, t reflect.Type) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		path := prefix + "." + tag

		ft := f.Type
		switch {
		case ft.Kind() == reflect.Struct && ft != reflect.TypeOf(struct{}{}):
			registerDefaults(v, path, ft)
		case ft.Kind() == reflect.Map, ft.Kind() == reflect.Slice:
			continue
		default:
			v.SetDefault(path, reflect.Zero(ft).Interface())
		}
	}
}
