package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

const (
	defaultRole          = "Software Engineer"
	defaultLevel         = "intermediate"
	defaultInterviewType = "Technical"

	endedMessage = "Thank you for your participation in this interview. The session has been concluded."
	farewellText = "Thank you for your time today, it was great speaking with you."

	overallFeedbackFallback = "Thank you for completing the interview. Your responses have been recorded and will be reviewed by our team."
)

var fallbackReplies = []string{
	"Thank you for sharing that. What would you say is the most challenging aspect?",
	"I appreciate your response. Could you elaborate briefly?",
	"That's interesting. What factors would you consider?",
}

var endPhrases = []string{
	"end interview",
	"stop interview",
	"finish interview",
	"conclude interview",
	"that's all",
	"i'm done",
	"let's end",
	"let's stop",
	"can we stop",
	"can we end",
	"wrap up",
	"finish up",
	"no more",
	"thank you that's it",
	"we can stop here",
	"end the session",
}

// ShouldEndInterview reports whether the candidate asked to stop.
func ShouldEndInterview(input string) bool {
	lower := strings.ToLower(input)
	for _, p := range endPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func greeting(s *models.InterviewerSession) string {
	return fmt.Sprintf(`Hello! Welcome to your interview. To get started, could you please:
1. Introduce yourself - tell me your name, your background, and any relevant experience
2. Confirm the interview details: the role (%s), difficulty level (%s), tech stack (%s), and number of questions (%d questions)

Please share your introduction and confirm these details.`,
		s.Role, s.Level, strings.Join(s.Techstack, ", "), len(s.Questions))
}

func interviewerSystemPrompt(s *models.InterviewerSession) string {
	stack := strings.Join(s.Techstack, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert technical interviewer conducting an interview for a %s position at %s level.\n\n", s.Role, s.Level)
	b.WriteString("Interview card (mandatory scope):\n")
	fmt.Fprintf(&b, "- Position/Role: %s\n- Experience Level: %s\n- Required Technologies: %s\n- Interview Type: %s\n\n",
		s.Role, s.Level, stack, s.InterviewType)

	if len(s.Questions) > 0 {
		fmt.Fprintf(&b, "You have %d prepared questions. Ask only these, adaptations of them, or follow-ups on them:\n", len(s.Questions))
		for i, q := range s.Questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "No prepared questions were provided. Every question must fit the %s role, %s level, %s technologies and a %s focus.\n\n",
			s.Role, s.Level, stack, s.InterviewType)
	}

	b.WriteString(`Interview flow:
1. The candidate has been asked to introduce themselves. Do not ask again about the role, level or technologies.
2. Ask one question at a time and keep every question within the card scope above.
3. There is no fixed number of questions; continue until the candidate asks to stop.
4. Give brief constructive feedback after each answer, one or two sentences.
5. Never repeat or echo the candidate's answer and never repeat your previous question.
6. Your reply contains only a short acknowledgement and the next question, at most three sentences.`)
	return b.String()
}

func nextQuestionPrompt(s *models.InterviewerSession) string {
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	b.WriteString(FormatTranscript(s.History))
	b.WriteString("\n")

	if countRole(s.History, models.RoleUser) == 1 {
		b.WriteString("The candidate has introduced themselves and confirmed the interview details. " +
			"Acknowledge that in one sentence and ask your first technical question.")
	} else {
		b.WriteString("The candidate just answered. Acknowledge briefly and ask the next new question within scope.")
	}
	return b.String()
}

func overallFeedbackPrompt(s *models.InterviewerSession) string {
	info, _ := json.MarshalIndent(s.Candidate, "", "  ")

	var qa strings.Builder
	for _, p := range s.QAPairs {
		fmt.Fprintf(&qa, "Q: %s\nA: %s\n\n", p.Question, p.Answer)
	}
	if qa.Len() == 0 {
		qa.WriteString(FormatTranscript(s.History))
	}

	return fmt.Sprintf(`As an expert technical interviewer, analyze the following interview for a %s (%s) candidate and provide balanced feedback.

Candidate Information:
%s

Interview Conversation Summary:
%s
Structure the feedback as:
1. Technical Proficiency (Score /100): core concepts, problem solving, design understanding.
2. Communication & Soft Skills (Score /100): clarity, question understanding, professional interaction.
3. Overall Assessment: top 3 strengths, top 3 areas for improvement, final recommendation.

Be specific with examples from their answers and keep it under 200 words.`,
		s.Role, s.Level, info, qa.String())
}

func countRole(msgs []models.Message, role models.Role) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role {
			n++
		}
	}
	return n
}
