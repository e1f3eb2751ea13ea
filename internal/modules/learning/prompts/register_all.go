package prompts

import "github.com/yungbote/rikai-backend/internal/modules/learning/content"

func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptCurriculumSkeleton,
		Version:    1,
		SchemaName: content.SkeletonSchemaName,
		Schema:     content.SkeletonSchema,
		System: `
あなたは学習カリキュラムの設計者です。
学習者の目標と経験から、順序立てた学習ロードマップを作成します。
各タスクはタイトルと概要、目安の学習時間（時間単位の正の数）のみで十分です。
Return JSON only.`,
		User: `
目標: 「{{.Goal}}」、経験: 「{{.ExperienceLabel}}」。
この目標を達成するための体系的な学習ロードマップをJSONで作成してください。

Output rules:
- modules: 学習順に並べた1つ以上のモジュール。各モジュールに1つ以上のタスク。
- level: 対象レベルを短く表すラベル。
- estimatedHours: 各タスクの目安時間。`,
		Validators: []Validator{
			RequireNonEmpty("Goal", func(in Input) string { return in.Goal }),
			RequireNonEmpty("ExperienceLabel", func(in Input) string { return in.ExperienceLabel }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptTaskDetail,
		Version:    1,
		SchemaName: content.DetailSchemaName,
		Schema:     content.DetailSchema,
		System: `
あなたは初心者に寄り添う講師です。
一つのトピックについて、分かりやすい解説と理解度チェッククイズを作成します。
Return JSON only.`,
		User: `
カリキュラム「{{.CurriculumTitle}}」のトピック「{{.TaskTitle}}」について、
初心者にも分かりやすい解説と理解度チェッククイズを作成してください。

Output rules:
- explanation: 300文字程度。Markdown（太字など）を使用可。
- keyPoints: 覚えておくべき重要ポイント3つ。
- quiz.options: 4択の選択肢をちょうど4つ。
- quiz.correctAnswer: 正解の選択肢のインデックス（0-3）。
- quiz.explanation: 正解・不正解に関する解説。`,
		Validators: []Validator{
			RequireNonEmpty("CurriculumTitle", func(in Input) string { return in.CurriculumTitle }),
			RequireNonEmpty("TaskTitle", func(in Input) string { return in.TaskTitle }),
		},
	})

	RegisterSpec(Spec{
		Name:    PromptMentorChat,
		Version: 1,
		System: `
あなたは「Rikai」の専属メンターです。
「{{.CurriculumTitle}}」の「{{.TaskTitle}}」を学習中のユーザーをサポートします。
親しみやすく、専門的な内容も噛み砕いて教えてください。`,
		Validators: []Validator{
			RequireNonEmpty("CurriculumTitle", func(in Input) string { return in.CurriculumTitle }),
			RequireNonEmpty("TaskTitle", func(in Input) string { return in.TaskTitle }),
		},
	})
}
