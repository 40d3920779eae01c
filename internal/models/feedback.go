package models

import "time"

// Scoring categories, in the order the rubric lists them.
const (
	CategoryCommunication  = "Communication Skills"
	CategoryTechnical      = "Technical Knowledge"
	CategoryProblemSolving = "Problem-Solving"
	CategoryCulturalFit    = "Cultural & Role Fit"
	CategoryConfidence     = "Confidence & Clarity"
)

var FeedbackCategories = []string{
	CategoryCommunication,
	CategoryTechnical,
	CategoryProblemSolving,
	CategoryCulturalFit,
	CategoryConfidence,
}

type CategoryScore struct {
	Name    string `bson:"name" json:"name" validate:"required,oneof='Communication Skills' 'Technical Knowledge' 'Problem-Solving' 'Cultural & Role Fit' 'Confidence & Clarity'"`
	Score   int    `bson:"score" json:"score" validate:"gte=0,lte=100"`
	Comment string `bson:"comment" json:"comment"`
}

// Assessment is the structured output expected from the scoring model.
type Assessment struct {
	TotalScore          int             `bson:"totalScore" json:"totalScore" validate:"gte=0,lte=100"`
	CategoryScores      []CategoryScore `bson:"categoryScores" json:"categoryScores" validate:"len=5,unique=Name,dive"`
	Strengths           []string        `bson:"strengths" json:"strengths" validate:"dive,required"`
	AreasForImprovement []string        `bson:"areasForImprovement" json:"areasForImprovement" validate:"dive,required"`
	FinalAssessment     string          `bson:"finalAssessment" json:"finalAssessment" validate:"required"`
}

// Feedback is a document in the "feedback" collection. At most one is
// canonical per (InterviewID, UserID); nothing in storage enforces it.
type Feedback struct {
	ID          string `bson:"_id" json:"id"`
	InterviewID string `bson:"interviewId" json:"interviewId"`
	UserID      string `bson:"userId" json:"userId"`

	Assessment `bson:",inline"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Score returns the score recorded for category, if any.
func (f *Feedback) Score(category string) (int, bool) {
	for _, c := range f.CategoryScores {
		if c.Name == category {
			return c.Score, true
		}
	}
	return 0, false
}
