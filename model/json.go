package model

import "encoding/json"

// The persistence layout: a document is {version, children}, a block is
// {id, type, attrs?, children?} where children are inline runs
// ({text, marks?}), inline nodes ({type, attrs?}) or child blocks. Ids are
// kept on round-trip; input without ids gets fresh ones.

// ToJSON returns the document's JSON-ready representation.
func (d *Document) ToJSON() map[string]interface{} {
	children := make([]interface{}, 0, len(d.Children))
	for _, b := range d.Children {
		children = append(children, b.ToJSON())
	}
	return map[string]interface{}{
		"version":  d.Version,
		"children": children,
	}
}

// ToJSON returns the block's JSON-ready representation.
func (b *Block) ToJSON() map[string]interface{} {
	obj := map[string]interface{}{
		"id":   string(b.ID),
		"type": b.Type,
	}
	if len(b.Attrs) > 0 {
		obj["attrs"] = b.Attrs
	}
	if len(b.Inline) > 0 {
		children := make([]interface{}, 0, len(b.Inline))
		for _, child := range b.Inline {
			children = append(children, inlineToJSON(child))
		}
		obj["children"] = children
	} else if len(b.Children) > 0 {
		children := make([]interface{}, 0, len(b.Children))
		for _, child := range b.Children {
			children = append(children, child.ToJSON())
		}
		obj["children"] = children
	}
	return obj
}

func inlineToJSON(child InlineChild) map[string]interface{} {
	switch child := child.(type) {
	case *TextRun:
		obj := map[string]interface{}{"text": child.Text}
		if len(child.Marks) > 0 {
			marks := make([]interface{}, 0, len(child.Marks))
			for _, mark := range child.Marks {
				m := map[string]interface{}{"type": mark.Type}
				if len(mark.Attrs) > 0 {
					m["attrs"] = mark.Attrs
				}
				marks = append(marks, m)
			}
			obj["marks"] = marks
		}
		return obj
	case *InlineNode:
		obj := map[string]interface{}{"type": child.Type}
		if len(child.Attrs) > 0 {
			obj["attrs"] = child.Attrs
		}
		return obj
	}
	return nil
}

// MarshalDocument serializes a document to JSON bytes.
func MarshalDocument(d *Document) ([]byte, error) {
	return json.Marshal(d.ToJSON())
}

// UnmarshalDocument parses JSON bytes into a document validated against the
// registry. Unknown types produce a SchemaError.
func UnmarshalDocument(reg *Registry, raw []byte) (*Document, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, NewSchemaError("invalid document JSON: %v", err)
	}
	return DocumentFromJSON(reg, obj)
}

// DocumentFromJSON builds a document from its decoded JSON representation.
func DocumentFromJSON(reg *Registry, obj map[string]interface{}) (*Document, error) {
	d := &Document{Version: 1}
	if v, ok := obj["version"].(float64); ok {
		d.Version = int64(v)
	}
	rawChildren, _ := obj["children"].([]interface{})
	for _, raw := range rawChildren {
		child, ok := raw.(map[string]interface{})
		if !ok {
			return nil, NewSchemaError("block entry is not an object")
		}
		b, err := BlockFromJSON(reg, child)
		if err != nil {
			return nil, err
		}
		d.Children = append(d.Children, b)
	}
	if err := Validate(reg, d); err != nil {
		return nil, err
	}
	return d, nil
}

// BlockFromJSON builds a block from its decoded JSON representation.
func BlockFromJSON(reg *Registry, obj map[string]interface{}) (*Block, error) {
	typ, _ := obj["type"].(string)
	spec, ok := reg.Node(typ)
	if !ok {
		return nil, NewSchemaError("unknown node type %q", typ)
	}
	if spec.Inline {
		return nil, NewSchemaError("inline type %q used as a block", typ)
	}
	computed, err := computeAttrs(spec.Attrs, attrsOf(obj))
	if err != nil {
		return nil, err
	}
	b := &Block{Type: typ, Attrs: computed}
	if id, ok := obj["id"].(string); ok && id != "" {
		b.ID = BlockID(id)
	} else {
		b.ID = NewBlockID()
	}
	rawChildren, _ := obj["children"].([]interface{})
	for _, raw := range rawChildren {
		child, ok := raw.(map[string]interface{})
		if !ok {
			return nil, NewSchemaError("child entry is not an object")
		}
		if _, isText := child["text"]; isText && spec.Content == KindInline {
			run, err := runFromJSON(reg, child)
			if err != nil {
				return nil, err
			}
			b.Inline = append(b.Inline, run)
			continue
		}
		childType, _ := child["type"].(string)
		childSpec, ok := reg.Node(childType)
		if !ok {
			return nil, NewSchemaError("unknown node type %q", childType)
		}
		if childSpec.Inline {
			node, err := NewInlineNode(reg, childType, attrsOf(child))
			if err != nil {
				return nil, err
			}
			b.Inline = append(b.Inline, node)
			continue
		}
		sub, err := BlockFromJSON(reg, child)
		if err != nil {
			return nil, err
		}
		b.Children = append(b.Children, sub)
	}
	b.Inline = NormalizeInline(reg, b.Inline)
	if err := checkContent(reg, spec, b); err != nil {
		return nil, err
	}
	return b, nil
}

func runFromJSON(reg *Registry, obj map[string]interface{}) (*TextRun, error) {
	text, _ := obj["text"].(string)
	var marks []*Mark
	rawMarks, _ := obj["marks"].([]interface{})
	for _, raw := range rawMarks {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, NewSchemaError("mark entry is not an object")
		}
		typ, _ := m["type"].(string)
		spec, ok := reg.Mark(typ)
		if !ok {
			return nil, NewSchemaError("unknown mark type %q", typ)
		}
		computed, err := computeAttrs(spec.Attrs, attrsOf(m))
		if err != nil {
			return nil, err
		}
		marks = append(marks, NewMark(typ, computed))
	}
	return NewTextRun(text, SortMarks(reg, marks)), nil
}

// attrsOf reads an attrs object, folding integral JSON numbers back to int
// so round-tripped documents compare equal to their originals.
func attrsOf(obj map[string]interface{}) map[string]interface{} {
	attrs, _ := obj["attrs"].(map[string]interface{})
	for k, v := range attrs {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			attrs[k] = int(f)
		}
	}
	return attrs
}
