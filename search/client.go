// Package search wraps an Elasticsearch-compatible HTTP client: index
// lifecycle, record CRUD, simple/multi/raw search (spec §4.6).
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Client wraps the low-level Elasticsearch transport.
type Client struct {
	es *elasticsearch.Client
}

// New builds a Client from cfg.
func New(cfg fwconfig.SearchModuleConfig) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, ferr.Internal("building search client: %v", err)
	}
	return &Client{es: es}, nil
}

func readBody(res *esapi.Response) ([]byte, error) {
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	if res.IsError() {
		return nil, ferr.BadGateway("search backend returned %s: %s", res.Status(), string(body))
	}
	return body, nil
}

// CreateIndex creates index, optionally with a mapping body (raw JSON).
func (c *Client) CreateIndex(ctx context.Context, index string, mapping []byte) error {
	req := esapi.IndicesCreateRequest{Index: index}
	if len(mapping) > 0 {
		req.Body = bytes.NewReader(mapping)
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return ferr.Wrap(err)
	}
	_, err = readBody(res)
	return err
}

// CheckIndexExist issues a HEAD and distinguishes 200 from 404 (spec §4.6).
func (c *Client) CheckIndexExist(ctx context.Context, index string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, ferr.Wrap(err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return false, nil
	}
	if res.IsError() {
		return false, ferr.BadGateway("checking index %q: %s", index, res.Status())
	}
	return true, nil
}

// CreateRecord indexes doc (any JSON-marshalable value) under id in index.
func (c *Client) CreateRecord(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return ferr.BadRequest("marshalling record: %v", err)
	}
	res, err := c.es.Index(index, bytes.NewReader(body), c.es.Index.WithDocumentID(id), c.es.Index.WithContext(ctx))
	if err != nil {
		return ferr.Wrap(err)
	}
	_, err = readBody(res)
	return err
}

// GetRecord fetches one record by id into out.
func (c *Client) GetRecord(ctx context.Context, index, id string, out any) error {
	res, err := c.es.Get(index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return ferr.Wrap(err)
	}
	if res.StatusCode == 404 {
		res.Body.Close()
		return ferr.NotFound("record %q not found in %q", id, index)
	}
	body, err := readBody(res)
	if err != nil {
		return err
	}
	var envelope struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ferr.Internal("decoding search envelope: %v", err)
	}
	return json.Unmarshal(envelope.Source, out)
}

// UpdateRecord partially updates id in index with the given doc fields.
func (c *Client) UpdateRecord(ctx context.Context, index, id string, doc any) error {
	payload, err := json.Marshal(map[string]any{"doc": doc})
	if err != nil {
		return ferr.BadRequest("marshalling update: %v", err)
	}
	res, err := c.es.Update(index, id, bytes.NewReader(payload), c.es.Update.WithContext(ctx))
	if err != nil {
		return ferr.Wrap(err)
	}
	_, err = readBody(res)
	return err
}

// DeleteRecord removes id from index.
func (c *Client) DeleteRecord(ctx context.Context, index, id string) error {
	res, err := c.es.Delete(index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return ferr.Wrap(err)
	}
	_, err = readBody(res)
	return err
}

// SimpleSearch runs a q-string query against index.
func (c *Client) SimpleSearch(ctx context.Context, index, q string) (*RawSearchResp, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithQuery(q),
	)
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	body, err := readBody(res)
	if err != nil {
		return nil, err
	}
	return parseRawSearchResp(body)
}

// MultiSearch folds field/value pairs into a bool.must[].match query.
func (c *Client) MultiSearch(ctx context.Context, index string, fields map[string]string) (*RawSearchResp, error) {
	must := make([]map[string]any, 0, len(fields))
	for field, value := range fields {
		must = append(must, map[string]any{"match": map[string]any{field: value}})
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must},
		},
	}
	return c.RawSearch(ctx, index, query)
}

// RawSearch runs body verbatim and parses the result into a RawSearchResp.
func (c *Client) RawSearch(ctx context.Context, index string, body any) (*RawSearchResp, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, ferr.BadRequest("marshalling search body: %v", err)
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, ferr.Wrap(err)
	}
	respBody, err := readBody(res)
	if err != nil {
		return nil, err
	}
	return parseRawSearchResp(respBody)
}

// RawSearchResp is the structured shape a raw-search response is parsed
// into (spec §4.6).
type RawSearchResp struct {
	Took int64             `json:"took"`
	Hits RawSearchRespHits `json:"hits"`
}

// RawSearchRespHits is the "hits" envelope of an Elasticsearch response.
type RawSearchRespHits struct {
	Total struct {
		Value int64 `json:"value"`
	} `json:"total"`
	Hits []RawSearchRespHit `json:"hits"`
}

// RawSearchRespHit is one matched document.
type RawSearchRespHit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

func parseRawSearchResp(body []byte) (*RawSearchResp, error) {
	var resp RawSearchResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ferr.Internal("decoding search response: %v", err)
	}
	return &resp, nil
}

// InitBy builds a single Client from a module config (spec §4.6 item 1).
func InitBy(cfg fwconfig.SearchModuleConfig) (*Client, error) {
	return New(cfg)
}

// InitByConf builds default + every named module's Client (spec §4.6 item 2).
func InitByConf(fam fwconfig.FamilyConfig[fwconfig.SearchModuleConfig]) (map[string]*Client, error) {
	out := make(map[string]*Client, len(fam.Modules)+1)
	def, err := InitBy(fam.Default)
	if err != nil {
		return nil, err
	}
	out[""] = def
	for code, cfg := range fam.Modules {
		inst, err := InitBy(cfg)
		if err != nil {
			return nil, err
		}
		out[strings.ToLower(code)] = inst
	}
	return out, nil
}
