package services

import (
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

var experienceIndicators = []struct {
	level string
	hints []string
}{
	{"junior", []string{"junior", "entry level", "fresh graduate", "0-2 years", "starting my career"}},
	{"mid-level", []string{"mid level", "intermediate", "2-5 years", "3-5 years", "few years of experience"}},
	{"senior", []string{"senior", "lead", "5+ years", "extensive experience", "many years"}},
}

var knownSkills = []string{
	"python", "java", "javascript", "typescript", "react", "node", "angular", "vue",
	"aws", "azure", "docker", "kubernetes", "sql", "nosql", "mongodb", "redis",
	"rest", "graphql", "ci/cd", "git", "agile", "scrum", "machine learning",
	"data structures", "algorithms", "system design", "microservices",
}

func newCandidateInfo(s *models.InterviewerSession) models.CandidateInfo {
	return models.CandidateInfo{
		AppliedRole:         s.Role,
		SkillsMentioned:     append([]string{}, s.Techstack...),
		ExperienceLevel:     s.Level,
		KeyStrengths:        []string{},
		AreasForImprovement: []string{},
	}
}

// ExtractCandidateInfo folds what an answer reveals about the candidate
// into info. Matching is by keyword, so "javascript" also counts as "java".
func ExtractCandidateInfo(info *models.CandidateInfo, answer string) {
	lower := strings.ToLower(answer)

	if strings.Contains(lower, "applied for") || strings.Contains(lower, "role") {
		info.AppliedRole = answer
	}

	if strings.Contains(lower, "introduction") || strings.Contains(lower, "name") || strings.Contains(lower, "experience") {
		info.Introduction = answer
	levels:
		for _, e := range experienceIndicators {
			for _, h := range e.hints {
				if strings.Contains(lower, h) {
					info.ExperienceLevel = e.level
					break levels
				}
			}
		}
	}

	seen := make(map[string]bool, len(info.SkillsMentioned))
	for _, sk := range info.SkillsMentioned {
		seen[sk] = true
	}
	for _, sk := range knownSkills {
		if strings.Contains(lower, sk) && !seen[sk] {
			seen[sk] = true
			info.SkillsMentioned = append(info.SkillsMentioned, sk)
		}
	}
}

// lastQuestion is the most recent interviewer turn before the candidate's
// pending answer.
func lastQuestion(history []models.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}
