package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Skeleton
	Goal            string
	ExperienceLabel string
	// Detail and mentor
	CurriculumTitle string
	TaskTitle       string
}
