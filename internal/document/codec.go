package document

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// envelope is the wire shape of a single block: {"type": ..., "data": {...}}.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// wireDocument is the encoded document. Version is json.RawMessage because
// editor payloads carry their own version string ("2.28.0") in this slot.
type wireDocument struct {
	Version json.RawMessage `json:"version,omitempty"`
	Time    int64           `json:"time,omitempty"`
	Blocks  []envelope      `json:"blocks"`
}

// Parse decodes a document from JSON. It accepts the stored form
// {"version":1,"blocks":[...]}, a raw editor save payload, or a bare array.
func Parse(data []byte) (Document, error) {
	var d Document
	if err := d.UnmarshalJSON(data); err != nil {
		return Document{}, err
	}
	return d, nil
}

// MarshalJSON encodes the document with the current schema version.
func (d Document) MarshalJSON() ([]byte, error) {
	out := struct {
		Version int        `json:"version"`
		Blocks  []envelope `json:"blocks"`
	}{Version: SchemaVersion, Blocks: make([]envelope, 0, len(d.Blocks))}

	for i, b := range d.Blocks {
		env, err := encodeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("encode block %d: %w", i, err)
		}
		out.Blocks = append(out.Blocks, env)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes any of the shapes accepted by Parse.
func (d *Document) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Blocks = nil
		return nil
	}

	var envs []envelope
	if data[0] == '[' {
		if err := json.Unmarshal(data, &envs); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
	} else {
		var wd wireDocument
		if err := json.Unmarshal(data, &wd); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		envs = wd.Blocks
	}

	blocks := make([]Block, 0, len(envs))
	for i, env := range envs {
		b, err := DecodeBlock(env.Type, env.Data)
		if err != nil {
			return fmt.Errorf("decode block %d (%s): %w", i, env.Type, err)
		}
		blocks = append(blocks, b)
	}
	d.Blocks = blocks
	return nil
}

// Value stores the document in a JSONB column.
func (d Document) Value() (driver.Value, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the document from a JSONB column.
func (d *Document) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Blocks = nil
		return nil
	case []byte:
		return d.UnmarshalJSON(v)
	case string:
		return d.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan document: unsupported type %T", src)
	}
}

// DecodeBlock builds a typed block from a tag and its raw payload.
// Unrecognised tags yield an Unknown block rather than an error.
func DecodeBlock(tag string, data json.RawMessage) (Block, error) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	switch Kind(tag) {
	case KindHeader:
		var h Header
		if err := json.Unmarshal(data, &h); err != nil {
			return nil, err
		}
		if h.Level < 1 || h.Level > 6 {
			h.Level = 2
		}
		return h, nil

	case KindParagraph:
		var p Paragraph
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil

	case KindList:
		var raw struct {
			Style string            `json:"style"`
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		l := List{Style: ListUnordered, Items: make([]string, 0, len(raw.Items))}
		if raw.Style == string(ListOrdered) {
			l.Style = ListOrdered
		}
		for _, item := range raw.Items {
			l.Items = append(l.Items, listItemText(item))
		}
		return l, nil

	case KindQuote:
		var q Quote
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, err
		}
		return q, nil

	case KindCode:
		var c Code
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil

	case KindImage:
		var img Image
		if err := json.Unmarshal(data, &img); err != nil {
			return nil, err
		}
		return img, nil

	case KindEmbed:
		var e Embed
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return e, nil

	case KindTable:
		var t Table
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return t, nil
	}

	return Unknown{Type: tag, Data: append([]byte(nil), data...)}, nil
}

// listItemText accepts both plain string items and the nested object form
// newer list tools emit ({"content": "...", "items": [...]}).
func listItemText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Content
	}
	return ""
}

func encodeBlock(b Block) (envelope, error) {
	if u, ok := b.(Unknown); ok {
		data := u.Data
		if len(data) == 0 {
			data = []byte("{}")
		}
		return envelope{Type: u.Type, Data: data}, nil
	}

	data, err := json.Marshal(b)
	if err != nil {
		return envelope{}, err
	}
	return envelope{Type: string(b.Kind()), Data: data}, nil
}

// EncodeBlock encodes a single block in its wire shape.
func EncodeBlock(b Block) (json.RawMessage, error) {
	env, err := encodeBlock(b)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
