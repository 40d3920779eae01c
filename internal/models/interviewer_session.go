package models

import "time"

// InterviewerSession is the interviewer service's state for one live
// conversation. It lives in Redis, keyed by SessionID.
type InterviewerSession struct {
	SessionID     string        `json:"session_id"`
	Role          string        `json:"role"`
	Level         string        `json:"level"`
	Techstack     []string      `json:"techstack"`
	InterviewType string        `json:"type"`
	Questions     []string      `json:"questions"`
	History       []Message     `json:"history"`
	QAPairs       []QAPair      `json:"qa_pairs"`
	Candidate     CandidateInfo `json:"candidate_info"`
	QuestionCount int           `json:"question_count"`
	Completed     bool          `json:"completed"`
	StartedAt     time.Time     `json:"started_at"`
}

// CandidateInfo is what the interviewer has learned about the candidate.
// It starts from the interview card and is refined from their answers.
type CandidateInfo struct {
	AppliedRole         string   `json:"applied_role"`
	Introduction        string   `json:"introduction"`
	SkillsMentioned     []string `json:"skills_mentioned"`
	ExperienceLevel     string   `json:"experience_level"`
	CommunicationScore  int      `json:"communication_score"`
	TechnicalScore      int      `json:"technical_score"`
	KeyStrengths        []string `json:"key_strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

// QAPair is one interviewer question with the candidate's answer to it.
type QAPair struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// DurationMinutes is the elapsed time rounded to two decimals.
func (s *InterviewerSession) DurationMinutes(now time.Time) float64 {
	m := now.Sub(s.StartedAt).Minutes()
	if m < 0 {
		m = 0
	}
	return float64(int64(m*100+0.5)) / 100
}
