package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/retrievit/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "triples": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "subject": {
            "type": "string"
          },
          "subject_type": {
            "type": "string"
          },
          "predicate": {
            "type": "string",
            "pattern": "^[a-z][a-zA-Z]*$"
          },
          "object": {
            "type": "string"
          },
          "object_type": {
            "type": "string"
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["subject", "predicate", "object", "confidence"],
        "additionalProperties": false
      }
    }
  },
  "required": ["triples"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract relation triples from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Subject and object are the surface forms of entities exactly as the text names them.
- Subject_type and object_type must match exactly one of the listed values: %s. Omit the field if none fits.
- Predicate is a short camelCase verb phrase, e.g. "operatedBy", "hasOrbit", "carries", "measures".
- Confidence is a number from 0 (speculative) to 1 (stated outright). Rate hedged or implied relations lower.
- Include only relations that are explicitly stated or clearly implied by the text. Do not hallucinate.
- Never produce a triple whose subject and object are the same entity.
- If no relations can be identified, return "triples": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example (formal):
Input: "INSAT-3D is a meteorological satellite operated by ISRO from geostationary orbit."
Output:
{
  "triples": [
    {"subject":"INSAT-3D","subject_type":"satellite","predicate":"operatedBy","object":"ISRO","object_type":"agency","confidence":0.95},
    {"subject":"INSAT-3D","subject_type":"satellite","predicate":"hasOrbit","object":"geostationary orbit","object_type":"orbit","confidence":0.9}
  ]
}

Example (instrument and measurement):
Input: "Oceansat-2 carries the Ocean Colour Monitor, which measures chlorophyll concentration."
Output:
{
  "triples": [
    {"subject":"Oceansat-2","subject_type":"satellite","predicate":"carries","object":"Ocean Colour Monitor","object_type":"instrument","confidence":0.95},
    {"subject":"Ocean Colour Monitor","subject_type":"instrument","predicate":"measures","object":"chlorophyll concentration","object_type":"measurement","confidence":0.9}
  ]
}

---  // informal / chat-style examples

Example (hedged statement, lower confidence):
Input: "megha tropiques was built together with france i think"
Output:
{
  "triples": [
    {"subject":"megha tropiques","subject_type":"satellite","predicate":"builtWith","object":"france","object_type":"location","confidence":0.6}
  ]
}

Example (no extractable relations):
Input: "hey can u help me find something"
Output:
{
  "triples": []
}`

const synthesisPrompt = `You answer questions using ONLY the context sections provided below the question.
The context may contain graph facts (rendered as "A --relation--> B" lines), document
snippets, FAQ entries, and recent conversation turns.

Rules:
- Base every statement on the provided context. Do not use outside knowledge.
- If the context does not contain the answer, say so plainly instead of guessing.
- Name entities the way the context names them.
- Be concise: a short paragraph, or a few sentences.
- Do not mention the context sections themselves or how you used them.`

// buildExtractionPrompt creates the system prompt with entity types embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}
