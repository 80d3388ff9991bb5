package vertexclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, projectID, region, model string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (a *Adapter) Close() error {
	err := a.client.Close()
	if err != nil && a.log != nil {
		a.log.Error("vertex adapter close failed", "error", err)
	}
	return err
}

// StreamGenerate starts a streamed generation. The conversation history rides
// in req.Contents; the final content must be the user turn being answered.
// The returned stream yields chunks until io.EOF.
func (a *Adapter) StreamGenerate(ctx context.Context, req dto.VertexStreamRequest) (dto.VertexStream, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return nil, fmt.Errorf("vertex model is required")
	}
	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("vertex stream request has no content")
	}

	model := a.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*req.MaxOutputTokens)
	}
	if len(req.Tools) > 0 {
		model.Tools = toGenaiTools(req.Tools)
	}

	last := req.Contents[len(req.Contents)-1]
	if last.Role != "user" {
		return nil, fmt.Errorf("vertex stream request must end with a user turn")
	}

	chat := model.StartChat()
	chat.History = toGenaiContents(req.Contents[:len(req.Contents)-1])

	return &Stream{iter: chat.SendMessageStream(ctx, toGenaiParts(last.Parts)...)}, nil
}

// Stream wraps the genai response iterator behind neutral chunk types.
type Stream struct {
	iter *genai.GenerateContentResponseIterator
}

// Recv returns the next chunk, or io.EOF when the model signals end-of-turn.
func (s *Stream) Recv() (dto.VertexStreamChunk, error) {
	resp, err := s.iter.Next()
	if err == iterator.Done {
		return dto.VertexStreamChunk{}, io.EOF
	}
	if err != nil {
		return dto.VertexStreamChunk{}, err
	}

	var chunk dto.VertexStreamChunk
	chunk.Text, chunk.ToolCalls = parseContentResponse(resp)
	return chunk, nil
}

func parseContentResponse(resp *genai.GenerateContentResponse) (string, []dto.VertexToolCall) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	var text string
	var calls []dto.VertexToolCall
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text += string(p)
			case *genai.FunctionCall:
				calls = append(calls, dto.VertexToolCall{
					Name: p.Name,
					Args: p.Args,
				})
			}
		}
	}

	return text, calls
}

func toGenaiContents(contents []dto.VertexContent) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, content := range contents {
		out = append(out, &genai.Content{
			Role:  content.Role,
			Parts: toGenaiParts(content.Parts),
		})
	}
	return out
}

func toGenaiParts(parts []dto.VertexPart) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, part := range parts {
		if part.Text != nil {
			out = append(out, genai.Text(*part.Text))
		}
	}
	return out
}

func toGenaiTools(tools []dto.VertexTool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

func toGenaiSchema(schema *dto.VertexSchema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(schema.Type),
		Description: schema.Description,
		Enum:        schema.Enum,
		Required:    schema.Required,
	}

	if schema.Items != nil {
		out.Items = toGenaiSchema(schema.Items)
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for key, value := range schema.Properties {
			out.Properties[key] = toGenaiSchema(value)
		}
	}

	return out
}

func toGenaiType(schemaType string) genai.Type {
	switch schemaType {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
