package search

import (
	"testing"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

func TestParseRawSearchRespDecodesHits(t *testing.T) {
	body := []byte(`{
		"took": 5,
		"hits": {
			"total": {"value": 2},
			"hits": [
				{"_index": "orders", "_id": "1", "_score": 1.5, "_source": {"name": "widget"}}
			]
		}
	}`)

	resp, err := parseRawSearchResp(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Took != 5 {
		t.Errorf("expected took 5, got %d", resp.Took)
	}
	if resp.Hits.Total.Value != 2 {
		t.Errorf("expected total value 2, got %d", resp.Hits.Total.Value)
	}
	if len(resp.Hits.Hits) != 1 || resp.Hits.Hits[0].ID != "1" {
		t.Fatalf("expected one hit with id 1, got %#v", resp.Hits.Hits)
	}
}

func TestParseRawSearchRespRejectsMalformedBody(t *testing.T) {
	_, err := parseRawSearchResp([]byte("not json"))
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestInitByConfBuildsDefaultAndModules(t *testing.T) {
	fam := fwconfig.FamilyConfig[fwconfig.SearchModuleConfig]{
		Default: fwconfig.SearchModuleConfig{URL: "http://es-default:9200"},
		Modules: map[string]fwconfig.SearchModuleConfig{
			"Catalog": {URL: "http://es-catalog:9200"},
		},
	}

	out, err := InitByConf(fam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out[""]; !ok {
		t.Error("expected a default instance")
	}
	if _, ok := out["catalog"]; !ok {
		t.Errorf("expected lower-cased module key, got %#v", out)
	}
}
