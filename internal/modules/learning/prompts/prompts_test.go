package prompts

import (
	"strings"
	"testing"

	"github.com/yungbote/rikai-backend/internal/modules/learning/content"
)

func TestBuildSkeleton(t *testing.T) {
	p, err := Build(PromptCurriculumSkeleton, Input{Goal: "3ヶ月でフランス語の日常会話", ExperienceLabel: "全くの初心者（ゼロから学びたい）"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.SchemaName != content.SkeletonSchemaName || p.Schema == nil {
		t.Fatalf("schema not attached: name=%q", p.SchemaName)
	}
	if !strings.Contains(p.User, "3ヶ月でフランス語の日常会話") || !strings.Contains(p.User, "全くの初心者") {
		t.Fatalf("user prompt missing inputs: %s", p.User)
	}
}

func TestBuildRejectsMissingInput(t *testing.T) {
	cases := []struct {
		name PromptName
		in   Input
	}{
		{PromptCurriculumSkeleton, Input{Goal: "  ", ExperienceLabel: "x"}},
		{PromptTaskDetail, Input{CurriculumTitle: "c"}},
		{PromptMentorChat, Input{TaskTitle: "t"}},
	}
	for _, tc := range cases {
		if _, err := Build(tc.name, tc.in); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestBuildMentorHasNoSchema(t *testing.T) {
	p, err := Build(PromptMentorChat, Input{CurriculumTitle: "Go入門", TaskTitle: "並行処理"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Schema != nil || p.SchemaName != "" {
		t.Fatalf("mentor prompt should be free text")
	}
	if !strings.Contains(p.System, "Go入門") || !strings.Contains(p.System, "並行処理") {
		t.Fatalf("system prompt missing context: %s", p.System)
	}
}

func TestBuildUnknown(t *testing.T) {
	if _, err := Build("nope", Input{}); err == nil {
		t.Fatalf("expected error for unknown prompt")
	}
}
