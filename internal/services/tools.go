package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mrcorrales01-hub/my-aura-sub003/internal/dto"
	"github.com/mrcorrales01-hub/my-aura-sub003/internal/errs"
)

// ToolContext is the ambient conversation state executors may read. Executors
// are pure functions of it plus their arguments; they never call the model.
type ToolContext struct {
	Lang     string
	Messages []dto.CoachMessage
}

type ToolExecutor func(ctx context.Context, tctx ToolContext, args map[string]any) (map[string]any, error)

type registeredTool struct {
	schema dto.VertexTool
	exec   ToolExecutor
}

type toolRegistry struct {
	order []string
	tools map[string]registeredTool
}

// NewToolRegistry returns a registry preloaded with the three coaching tools.
func NewToolRegistry() *toolRegistry {
	r := &toolRegistry{tools: make(map[string]registeredTool)}
	r.Register(createPlanSchema(), executeCreatePlan)
	r.Register(suggestExercisesSchema(), executeSuggestExercises)
	r.Register(journalPromptSchema(), executeJournalPrompt)
	return r
}

func (r *toolRegistry) Register(schema dto.VertexTool, exec ToolExecutor) {
	if _, exists := r.tools[schema.Name]; !exists {
		r.order = append(r.order, schema.Name)
	}
	r.tools[schema.Name] = registeredTool{schema: schema, exec: exec}
}

// Describe returns the tool schemas in registration order, for the model's
// function declarations.
func (r *toolRegistry) Describe() []dto.VertexTool {
	out := make([]dto.VertexTool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].schema)
	}
	return out
}

func (r *toolRegistry) Execute(ctx context.Context, tctx ToolContext, name string, args map[string]any) (map[string]any, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, errs.NewUnknownToolError(name)
	}
	return tool.exec(ctx, tctx, args)
}

// ---- create_plan ----

type createPlanArgs struct {
	Focus string `json:"focus"`
	Days  int    `json:"days"`
}

func createPlanSchema() dto.VertexTool {
	return dto.VertexTool{
		Name:        "create_plan",
		Description: "Build a short multi-day wellness plan the user can follow, with concrete steps and daily habits.",
		Parameters: &dto.VertexSchema{
			Type: "object",
			Properties: map[string]*dto.VertexSchema{
				"focus": {Type: "string", Description: "What the plan is for, e.g. 'better sleep' or 'managing stress'. Required."},
				"days":  {Type: "integer", Description: "Plan length in days, 1-7. Defaults to 3."},
			},
			Required: []string{"focus"},
		},
	}
}

func executeCreatePlan(_ context.Context, _ ToolContext, rawArgs map[string]any) (map[string]any, error) {
	args, err := decodeArgs[createPlanArgs](rawArgs)
	if err != nil {
		return nil, errs.NewInvalidArgumentsError("create_plan", err.Error())
	}
	if strings.TrimSpace(args.Focus) == "" {
		return nil, errs.NewInvalidArgumentsError("create_plan", "focus is required")
	}
	if args.Days <= 0 {
		args.Days = 3
	}
	if args.Days > 7 {
		args.Days = 7
	}

	steps := make([]any, 0, args.Days)
	for day := 1; day <= args.Days; day++ {
		steps = append(steps, map[string]any{
			"day":  day,
			"step": fmt.Sprintf("Day %d: one small, concrete action toward %s", day, args.Focus),
		})
	}

	return map[string]any{
		"title": fmt.Sprintf("%d-day plan: %s", args.Days, args.Focus),
		"steps": steps,
		"dailyHabits": []any{
			"Check in with yourself for two minutes each morning",
			fmt.Sprintf("Note one thing that helped with %s before bed", args.Focus),
		},
	}, nil
}

// ---- suggest_exercises ----

type suggestExercisesArgs struct {
	Minutes int    `json:"minutes"`
	Focus   string `json:"focus"`
}

type exerciseItem struct {
	Name    string
	Minutes int
}

var exerciseCatalog = map[string][]exerciseItem{
	"calm": {
		{Name: "Box breathing", Minutes: 4},
		{Name: "Body scan", Minutes: 6},
		{Name: "Grounding walk", Minutes: 10},
	},
	"sleep": {
		{Name: "4-7-8 breathing", Minutes: 3},
		{Name: "Progressive muscle relaxation", Minutes: 7},
		{Name: "Wind-down journaling", Minutes: 10},
	},
	"energy": {
		{Name: "Stretch break", Minutes: 3},
		{Name: "Brisk walk", Minutes: 7},
		{Name: "Light mobility routine", Minutes: 12},
	},
}

func suggestExercisesSchema() dto.VertexTool {
	return dto.VertexTool{
		Name:        "suggest_exercises",
		Description: "Suggest up to two time-boxed exercises fitting the minutes the user has available.",
		Parameters: &dto.VertexSchema{
			Type: "object",
			Properties: map[string]*dto.VertexSchema{
				"minutes": {Type: "integer", Description: "Minutes the user has available. Required, 1-60."},
				"focus":   {Type: "string", Enum: []string{"calm", "sleep", "energy"}, Description: "What the exercises should help with. Defaults to calm."},
			},
			Required: []string{"minutes"},
		},
	}
}

func executeSuggestExercises(_ context.Context, _ ToolContext, rawArgs map[string]any) (map[string]any, error) {
	args, err := decodeArgs[suggestExercisesArgs](rawArgs)
	if err != nil {
		return nil, errs.NewInvalidArgumentsError("suggest_exercises", err.Error())
	}
	if args.Minutes <= 0 || args.Minutes > 60 {
		return nil, errs.NewInvalidArgumentsError("suggest_exercises", "minutes must be between 1 and 60")
	}
	catalog, ok := exerciseCatalog[args.Focus]
	if !ok {
		catalog = exerciseCatalog["calm"]
	}

	picked := pickExercises(catalog, args.Minutes)

	items := make([]any, 0, len(picked))
	total := 0
	for _, ex := range picked {
		items = append(items, map[string]any{
			"name":    ex.Name,
			"minutes": ex.Minutes,
		})
		total += ex.Minutes
	}

	return map[string]any{
		"exercises":    items,
		"totalMinutes": total,
	}, nil
}

// pickExercises chooses at most two catalog entries whose durations come as
// close as possible to the requested minutes without exceeding them, scaling
// the last pick up or down when the fit is loose.
func pickExercises(catalog []exerciseItem, minutes int) []exerciseItem {
	var picked []exerciseItem
	remaining := minutes
	for _, ex := range catalog {
		if len(picked) == 2 {
			break
		}
		if ex.Minutes <= remaining {
			picked = append(picked, ex)
			remaining -= ex.Minutes
		}
	}

	if len(picked) == 0 {
		// Nothing fits; shrink the shortest entry to the available time.
		shortest := catalog[0]
		for _, ex := range catalog[1:] {
			if ex.Minutes < shortest.Minutes {
				shortest = ex
			}
		}
		shortest.Minutes = minutes
		return []exerciseItem{shortest}
	}

	// Stretch the final pick to absorb leftover time.
	if remaining > 0 {
		picked[len(picked)-1].Minutes += remaining
	}
	return picked
}

// ---- journal_prompt ----

type journalPromptArgs struct {
	Theme string `json:"theme"`
}

func journalPromptSchema() dto.VertexTool {
	return dto.VertexTool{
		Name:        "journal_prompt",
		Description: "Produce a short reflective journaling prompt: a few bullets to consider and one question to answer.",
		Parameters: &dto.VertexSchema{
			Type: "object",
			Properties: map[string]*dto.VertexSchema{
				"theme": {Type: "string", Description: "Theme to reflect on, e.g. 'gratitude' or 'a difficult conversation'. Required."},
			},
			Required: []string{"theme"},
		},
	}
}

func executeJournalPrompt(_ context.Context, _ ToolContext, rawArgs map[string]any) (map[string]any, error) {
	args, err := decodeArgs[journalPromptArgs](rawArgs)
	if err != nil {
		return nil, errs.NewInvalidArgumentsError("journal_prompt", err.Error())
	}
	if strings.TrimSpace(args.Theme) == "" {
		return nil, errs.NewInvalidArgumentsError("journal_prompt", "theme is required")
	}

	return map[string]any{
		"bullets": []any{
			fmt.Sprintf("When did %s last come up for you?", args.Theme),
			"What did you feel in your body in that moment?",
			"What would you tell a friend in the same situation?",
		},
		"question": fmt.Sprintf("What is one small thing about %s you want to carry into tomorrow?", args.Theme),
	}, nil
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	if len(args) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
