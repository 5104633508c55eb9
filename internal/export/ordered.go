package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// member is one key of a JSON object in document order. The registry's
// "values" map is emitted into XML in the order the operator's template
// produced it, which encoding/json's map type would destroy.
type member struct {
	Key string
	Raw json.RawMessage
}

// objectMembers parses a JSON object keeping member order.
func objectMembers(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{Key: key, Raw: value})
	}
	return members, nil
}

// arrayMembers parses a JSON array of objects, each with member order kept.
func arrayMembers(raw []byte) ([][]member, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	items := make([][]member, 0, len(elems))
	for _, e := range elems {
		m, err := objectMembers(e)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

// stringify renders a raw JSON scalar as element text. Strings lose their
// quotes; everything else keeps its JSON spelling.
func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// findMember returns the value of key, or nil when absent.
func findMember(members []member, key string) json.RawMessage {
	for _, m := range members {
		if m.Key == key {
			return m.Raw
		}
	}
	return nil
}

// setMember replaces key's value in place, appending when absent.
func setMember(members []member, key, value string) []member {
	quoted := json.RawMessage(strconv.Quote(value))
	for i := range members {
		if members[i].Key == key {
			members[i].Raw = quoted
			return members
		}
	}
	return append(members, member{Key: key, Raw: quoted})
}
