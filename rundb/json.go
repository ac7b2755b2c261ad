package rundb

import "encoding/json"

// Encodable is implemented by values that carry their own wire encoding,
// such as runtime functions that strip volatile state before storage.
type Encodable interface {
	ToJSON() ([]byte, error)
}

// asJSON converts an operation body to its JSON wire form, preferring the
// value's own encoder over the structural default.
func asJSON(v any) ([]byte, error) {
	if enc, ok := v.(Encodable); ok {
		return enc.ToJSON()
	}
	return json.Marshal(v)
}
