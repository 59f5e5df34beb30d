package types

import "time"

type SubmissionView struct {
	ID             string        `json:"id"`
	Username       string        `json:"user_username"`
	ImageURL       *string       `json:"image"`
	ThumbnailURL   *string       `json:"thumbnail"`
	WatermarkedURL *string       `json:"watermarked_image"`
	Description    string        `json:"description"`
	Judged         bool          `json:"is_judged"`
	CreatedAt      time.Time     `json:"created_at"`
	Judgment       *JudgmentView `json:"judgment,omitempty"`
}

type JudgmentView struct {
	ID              string    `json:"id"`
	SubmissionID    string    `json:"submission_id"`
	Verdict         Verdict   `json:"judgment"`
	SpeedKMH        *float64  `json:"speed_kmh"`
	Comment         string    `json:"metaphor_comment"`
	DetailedComment string    `json:"detailed_comment"`
	RejectionReason string    `json:"rejection_reason"`
	JudgeName       string    `json:"judge_name"`
	CreatedAt       time.Time `json:"created_at"`
}

// VerdictRequest is the body of a judging call. The comment is mandatory for
// both verdicts; that mirrors the legacy rule even though it reads oddly for
// rejections.
type VerdictRequest struct {
	Verdict         Verdict  `json:"judgment"          validate:"required,oneof=APPROVED REJECTED"`
	SpeedKMH        *float64 `json:"speed_kmh"         validate:"required_if=Verdict APPROVED,omitempty,gte=0,lte=1000"`
	Comment         string   `json:"metaphor_comment"  validate:"required,max=500"`
	DetailedComment string   `json:"detailed_comment"  validate:"max=1000"`
	RejectionReason string   `json:"rejection_reason"  validate:"required_if=Verdict REJECTED,max=200"`
}

// DeletionConfirmation is returned when a rejection erased the submission.
type DeletionConfirmation struct {
	SubmissionID string  `json:"submission_id"`
	Verdict      Verdict `json:"judgment"`
	Deleted      bool    `json:"deleted"`
}

type ReportRequest struct {
	Reason      ReportReason `json:"reason"      validate:"required,oneof=inappropriate spam harassment violence other"`
	Description string       `json:"description" validate:"max=500"`
}

type ReportView struct {
	ID           string       `json:"id"`
	SubmissionID string       `json:"submission_id"`
	Reporter     string       `json:"reporter_username"`
	Reason       ReportReason `json:"reason"`
	Description  string       `json:"description"`
	Resolved     bool         `json:"is_resolved"`
	CreatedAt    time.Time    `json:"created_at"`
}

type NotificationView struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

type RankingView struct {
	ID         string          `json:"id"`
	Period     RankingPeriod   `json:"ranking_type"`
	Rank       uint            `json:"rank"`
	SpeedKMH   float64         `json:"speed_kmh"`
	CreatedAt  time.Time       `json:"created_at"`
	Submission *SubmissionView `json:"submission"`
}
