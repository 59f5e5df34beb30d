package models

import (
	"github.com/google/uuid"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

type Report struct {
	Detail     string
	Reason     types.ReportReason `gorm:"type:text"`
	IsResolved bool
	Model
	SubmissionID uuid.UUID
	ReporterID   uuid.UUID
}

func (Report) TableName() string {
	return "report"
}

func (r Report) GetID() uuid.UUID {
	return r.ID
}
