package dto

// Neutral request/response shapes for the generation provider. The vertex
// client adapter translates these to and from genai types so services never
// import the SDK directly.

type VertexStreamRequest struct {
	Model           string
	System          string
	Contents        []VertexContent
	Tools           []VertexTool
	Temperature     *float32
	MaxOutputTokens *int32
}

type VertexContent struct {
	Role  string // "user" or "model"
	Parts []VertexPart
}

type VertexPart struct {
	Text *string
}

// VertexStream yields increments of a streamed generation until io.EOF.
type VertexStream interface {
	Recv() (VertexStreamChunk, error)
}

// VertexStreamChunk is one increment of a streamed generation. Text carries
// the prose delta; ToolCalls carries any complete function-call parts that
// arrived in the same upstream chunk.
type VertexStreamChunk struct {
	Text      string
	ToolCalls []VertexToolCall
}

type VertexTool struct {
	Name        string
	Description string
	Parameters  *VertexSchema
}

type VertexToolCall struct {
	Name string
	Args map[string]any
}

type VertexSchema struct {
	Type        string
	Description string
	Enum        []string
	Properties  map[string]*VertexSchema
	Required    []string
	Items       *VertexSchema
}
