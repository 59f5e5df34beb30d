package types

type PingResponse struct {
	Status string `json:"status"`
}

// DerivativeKind names the raster variants of a submission's original image.
type DerivativeKind string

const (
	KindOriginal    DerivativeKind = "original"
	KindThumbnail   DerivativeKind = "thumbnail"
	KindWatermarked DerivativeKind = "watermarked"
)

type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleJudge Role = "JUDGE"
	RoleAdmin Role = "ADMIN"
)

// CanJudge reports whether the role may render verdicts.
func (r Role) CanJudge() bool {
	return r == RoleJudge || r == RoleAdmin
}

type NotificationType string

const (
	NotificationApproval  NotificationType = "APPROVAL"
	NotificationRejection NotificationType = "REJECTION"
	NotificationRanking   NotificationType = "RANKING"
)

type ReportReason string

const (
	ReportInappropriate ReportReason = "inappropriate"
	ReportSpam          ReportReason = "spam"
	ReportHarassment    ReportReason = "harassment"
	ReportViolence      ReportReason = "violence"
	ReportOther         ReportReason = "other"
)

type RankingPeriod string

const (
	RankingWeekly  RankingPeriod = "weekly"
	RankingMonthly RankingPeriod = "monthly"
	RankingAllTime RankingPeriod = "all_time"
)
