package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/vitaliisemenov/corefx/ferr"
)

// ErrorSentinel prefixes the body a handler writes on its error path; the
// UniformError middleware looks for it verbatim, so it is wire contract and
// never renamed (spec §4.7.4, testable property in spec §8).
const ErrorSentinel = "__TARDIS_ERROR__"

// ErrorHeader carries the tagged error code on the error path, read back by
// UniformError before it rewrites the response (spec §4.7.4).
const ErrorHeader = "x-tardis-error"

// TardisResp is the success envelope spec §4.7.5 "Response envelope"
// describes. Code is "200" for an immediate result or "202" for accepted.
type TardisResp[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data *T     `json:"data,omitempty"`
}

// OK builds a TardisResp with code "200".
func OK[T any](data T) TardisResp[T] {
	return TardisResp[T]{Code: "200", Msg: "ok", Data: &data}
}

// Accepted builds a TardisResp with code "202" and no data payload.
func Accepted[T any]() TardisResp[T] {
	return TardisResp[T]{Code: "202", Msg: "accepted"}
}

// TardisPage is the canonical paged container (spec §4.7.5).
type TardisPage[T any] struct {
	PageSize   int `json:"page_size"`
	PageNumber int `json:"page_number"`
	TotalSize  int `json:"total_size"`
	Records    []T `json:"records"`
}

// WriteJSON writes resp as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// errorEnvelope is the stable {code, msg} shape UniformError rewrites a
// tagged error into (spec §4.7.4).
type errorEnvelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// WriteTardisError writes fe on a handler's error path: the status is fe's
// mapped HTTP status, the header carries the raw code for UniformError to
// read back, and the body is the sentinel followed by fe's JSON encoding.
// Handlers call this instead of returning a Go error so the framework's
// uniform-error contract stays a wire-level concern, matching spec §4.7.4
// "the handler constructs a response with header x-tardis-error: <code> and
// a body prefixed by a sentinel".
func WriteTardisError(w http.ResponseWriter, fe *ferr.Error) {
	w.Header().Set(ErrorHeader, fe.Code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(fe.HTTPStatus())
	body, _ := json.Marshal(errorEnvelope{Code: fe.Code, Msg: fe.Message})
	_, _ = w.Write([]byte(ErrorSentinel))
	_, _ = w.Write(body)
}
