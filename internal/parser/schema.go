package parser

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resumeSchema rejects structurally wrong responses. Scalar fields stay loose
// because the decoder coerces them.
const resumeSchema = `{
  "type": "object",
  "definitions": {
    "list": {"type": ["array", "string", "null"]},
    "object": {"type": ["object", "null"]},
    "experience": {
      "type": ["array", "null"],
      "items": {"type": "object"}
    }
  },
  "properties": {
    "personal_info": {"$ref": "#/definitions/object"},
    "professional_info": {"$ref": "#/definitions/object"},
    "skills": {
      "type": ["object", "null"],
      "properties": {
        "tech_stack": {"$ref": "#/definitions/list"},
        "hard_skills": {"$ref": "#/definitions/list"},
        "soft_skills": {"$ref": "#/definitions/list"},
        "languages": {"$ref": "#/definitions/list"}
      }
    },
    "education": {"type": ["object", "array", "string", "null"]},
    "experience": {"$ref": "#/definitions/experience"},
    "work_experience": {"$ref": "#/definitions/experience"},
    "tech_stack": {"$ref": "#/definitions/list"},
    "hard_skills": {"$ref": "#/definitions/list"},
    "soft_skills": {"$ref": "#/definitions/list"},
    "languages": {"$ref": "#/definitions/list"},
    "certifications": {"$ref": "#/definitions/list"}
  }
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("resume.json", strings.NewReader(resumeSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("resume.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
