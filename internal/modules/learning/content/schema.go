package content

const (
	SkeletonSchemaName = "curriculum_skeleton_v1"
	DetailSchemaName   = "task_detail_v1"
)

func stringSchema(description string) map[string]any {
	s := map[string]any{"type": "string"}
	if description != "" {
		s["description"] = description
	}
	return s
}

func numberSchema(description string) map[string]any {
	s := map[string]any{"type": "number"}
	if description != "" {
		s["description"] = description
	}
	return s
}

// Strict structured-output schemas: every property is required and
// additionalProperties is false on every object.

func SkeletonTaskSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":          stringSchema(""),
			"description":    stringSchema("1-2 sentence overview of the step"),
			"estimatedHours": numberSchema("positive number of study hours"),
		},
		"required":             []string{"title", "description", "estimatedHours"},
		"additionalProperties": false,
	}
}

func SkeletonModuleSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": stringSchema(""),
			"tasks": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    SkeletonTaskSchema(),
			},
		},
		"required":             []string{"title", "tasks"},
		"additionalProperties": false,
	}
}

func SkeletonSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":               stringSchema(""),
			"description":         stringSchema(""),
			"level":               stringSchema("short label of the target level"),
			"totalEstimatedHours": numberSchema(""),
			"modules": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    SkeletonModuleSchema(),
			},
		},
		"required":             []string{"title", "description", "level", "totalEstimatedHours", "modules"},
		"additionalProperties": false,
	}
}

func QuizSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": stringSchema(""),
			"options": map[string]any{
				"type":        "array",
				"minItems":    4,
				"maxItems":    4,
				"items":       stringSchema(""),
				"description": "exactly four choices",
			},
			"correctAnswer": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3,
				"description": "index of the correct option (0-3)",
			},
			"explanation": stringSchema("why the answer is right or wrong"),
		},
		"required":             []string{"question", "options", "correctAnswer", "explanation"},
		"additionalProperties": false,
	}
}

func DetailSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": stringSchema("about 300 characters, markdown emphasis allowed"),
			"keyPoints": map[string]any{
				"type":        "array",
				"minItems":    1,
				"items":       stringSchema(""),
				"description": "three key points to remember",
			},
			"quiz": QuizSchema(),
		},
		"required":             []string{"explanation", "keyPoints", "quiz"},
		"additionalProperties": false,
	}
}
