// Package api defines the document shapes quickdir exchanges with other
// tools: the JSON/YAML tree export and the JSON Schema that imports are
// validated against.
package api

// Tree is one node of an exported layout.
type Tree struct {
	// Name of the entry.
	Name string `json:"name" yaml:"name"`
	// Children in tree order. Always present, empty for leaves.
	Children []Tree `json:"children" yaml:"children"`
	// Level is the depth of the entry, the root being 0.
	Level int `json:"level" yaml:"level"`
}

// TreeSchema is the JSON Schema (draft-07) of a Tree document. Level is
// optional on import since it is recomputed from the root.
const TreeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "quickdir tree",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {
      "type": "string",
      "pattern": "^[A-Za-z0-9_-]+$"
    },
    "level": {
      "type": "integer",
      "minimum": 0
    },
    "children": {
      "type": "array",
      "items": { "$ref": "#" }
    }
  }
}`
