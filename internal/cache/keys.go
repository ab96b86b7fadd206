package cache

import "encoding/json"

// Key derives the fingerprint cache key for a logical operation and its
// parameter set. The same operation with the same parameters always yields
// the same key, regardless of the order the map was built in: encoding/json
// emits map keys in sorted order, so the JSON form is canonical. The
// operation name is a distinct prefix so two operations can never share a
// key even if their parameters collide.
func Key(op string, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		// map[string]string cannot fail to marshal
		panic(err)
	}
	return op + ":" + string(raw)
}
