package llm

// Content roles used in Request.Contents.
const (
	RoleUser     = "user"
	RoleModel    = "model"
	RoleFunction = "function"
)

// Schema types, in lowercase JSON Schema spelling. Gemini wants them
// uppercased; the Gemini client converts on the way out.
const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Request is one completion call: the ordered conversation plus the tools the
// model may invoke. Requests are built fresh for every call.
type Request struct {
	Contents []Content
	Tools    []FunctionDeclaration
}

// Content is a single role-tagged entry of the conversation.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part holds exactly one of Text, FunctionCall or FunctionResponse.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
// ID is only set by backends that correlate calls and results (Anthropic, OpenAI).
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResponse carries a tool result back to the model, keyed to the tool name.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// FunctionDeclaration describes a callable tool to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is the subset of JSON Schema used for tool parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Response is what every backend returns, shaped like a generateContent reply.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one alternative answer. Content is nil when the service
// returned a candidate without content (e.g. blocked by safety filters).
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UserText builds a user-role content with a single text part.
func UserText(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// FirstPart returns the first part of the top candidate, or nil when the
// response has no candidates, no content or no parts.
func (r *Response) FirstPart() *Part {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	c := r.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return nil
	}
	return &c.Parts[0]
}

// Map converts the schema to the plain map form the OpenAI and Anthropic SDKs accept.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	m := map[string]any{"type": s.Type}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.Map()
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}
