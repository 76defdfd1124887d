package lesson

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "question": {
      "type": "object",
      "required": ["type", "question"],
      "properties": {
        "type": {"enum": ["multipleChoice", "written", "scenario"]},
        "question": {"type": "string"},
        "options": {"type": "array", "items": {"type": "string"}},
        "correctIndex": {"type": "integer", "minimum": 0},
        "wordLimit": {"type": "integer", "minimum": 0},
        "imageUrl": {"type": "string"}
      },
      "allOf": [
        {
          "if": {"properties": {"type": {"const": "multipleChoice"}}},
          "then": {"required": ["options"], "properties": {"options": {"minItems": 3}}}
        }
      ]
    },
    "assessment": {"type": "array", "items": {"$ref": "#/definitions/question"}},
    "chapter": {
      "type": "object",
      "required": ["title"],
      "properties": {
        "id": {"type": "string"},
        "title": {"type": "string"},
        "summary": {"type": "string"},
        "content": {"type": "string"},
        "xp": {"type": "integer", "minimum": 0},
        "assessment": {"$ref": "#/definitions/assessment"}
      }
    },
    "lesson": {
      "type": "object",
      "required": ["title"],
      "properties": {
        "id": {"type": "string"},
        "title": {"type": "string"},
        "summary": {"type": "string"},
        "xp": {"type": "integer", "minimum": 0},
        "assessment": {"$ref": "#/definitions/assessment"},
        "chapters": {"type": "array", "items": {"$ref": "#/definitions/chapter"}}
      }
    },
    "topic": {
      "type": "object",
      "required": ["title"],
      "properties": {
        "id": {"type": "string"},
        "title": {"type": "string"},
        "summary": {"type": "string"},
        "assessment": {"$ref": "#/definitions/assessment"},
        "lessons": {"type": "array", "items": {"$ref": "#/definitions/lesson"}}
      }
    },
    "term": {
      "type": "object",
      "required": ["title"],
      "properties": {
        "id": {"type": "string"},
        "title": {"type": "string"},
        "summary": {"type": "string"},
        "assessment": {"$ref": "#/definitions/assessment"},
        "topics": {"type": "array", "items": {"$ref": "#/definitions/topic"}}
      }
    }
  },
  "type": "object",
  "required": ["id", "title"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "subject": {"type": "string"},
    "grade": {"type": "string"},
    "terms": {"type": "array", "items": {"$ref": "#/definitions/term"}}
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return schema, schemaErr
}

// DecodeJSON checks raw JSON against the document schema, decodes it and runs
// Validate. Nodes without ids get fresh ones.
func DecodeJSON(data []byte) (*Document, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling document schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	doc.Normalize()
	AssignIDs(&doc)
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
