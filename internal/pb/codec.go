package pb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements google.golang.org/grpc/encoding.Codec over
// encoding/json. Registered under the name "json": clients select it with
// grpc.CallContentSubtype("json"), and the server resolves it from the
// request's content-subtype, in place of the default protobuf-descriptor
// codec (see package doc).
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

// Codec is the shared codec instance, registered in init; lk-worker selects
// it by name for every call and lk-lighthouse looks it up per request.
var Codec = jsonCodec{}

func init() {
	encoding.RegisterCodec(Codec)
}
