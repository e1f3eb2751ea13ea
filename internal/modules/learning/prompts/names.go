package prompts

type PromptName string

const (
	PromptCurriculumSkeleton PromptName = "curriculum_skeleton"
	PromptTaskDetail         PromptName = "task_detail"
	PromptMentorChat         PromptName = "mentor_chat"
)
