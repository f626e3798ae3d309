// Package domain contains the subsidy application aggregate and its
// lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	StatusDraft             ApplicationStatus = "S1_DRAFT"
	StatusSubmitted         ApplicationStatus = "S2_SUBMITTED"
	StatusInReview          ApplicationStatus = "S3_IN_REVIEW"
	StatusReturned          ApplicationStatus = "S4_RETURNED"
	StatusTechValidated     ApplicationStatus = "S5_TECH_VALIDATED"
	StatusReadyForPresident ApplicationStatus = "S6_READY_FOR_PRESIDENT"
	StatusSentToMeeting     ApplicationStatus = "S8_SENT_TO_MEETING"
	StatusDeliberated       ApplicationStatus = "S9_DELIBERATED"
	StatusAwaitingExpense   ApplicationStatus = "S10_AWAITING_EXPENSE"
	StatusClosed            ApplicationStatus = "S15_CLOSED"
)

// Deliberation and president decision outcomes.
const (
	DeliberationApproved = "APPROVED"
	DeliberationRejected = "REJECTED"

	PresidentForward = "APPROVE_TO_PROCEED"
	PresidentReturn  = "RETURN_FOR_CORRECTION"
)

// Application is a request for municipal support filed by an entity.
// ObjectNormalized is a folded form of Object used for duplicate
// detection.
type Application struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	EntityID         snowflake.ID      `gorm:"column:entity_id;not null;index" json:"entity_id"`
	CategoryID       *snowflake.ID     `gorm:"column:category_id" json:"category_id,omitempty"`
	Object           string            `gorm:"type:text;not null" json:"object"`
	ObjectNormalized string            `gorm:"column:object_normalized;type:text;not null;index" json:"-"`
	Description      string            `gorm:"type:text;not null;default:''" json:"description"`
	RequestedAmount  float64           `gorm:"column:requested_amount;type:numeric(14,2);not null;default:0" json:"requested_amount"`
	ApprovedAmount   *float64          `gorm:"column:approved_amount;type:numeric(14,2)" json:"approved_amount,omitempty"`
	CurrentStatus    ApplicationStatus `gorm:"column:current_status;not null;index" json:"current_status"`
	SubmittedAt      *time.Time        `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	TechValidatedAt  *time.Time        `gorm:"column:tech_validated_at" json:"tech_validated_at,omitempty"`
	SentToMeetingAt  *time.Time        `gorm:"column:sent_to_meeting_at" json:"sent_to_meeting_at,omitempty"`
	ClosedAt         *time.Time        `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedBy        *snowflake.ID     `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (Application) TableName() string { return "applications" }

// MeetingDeliberation records the chamber's decision. One row per
// application; re-deliberating the same application overwrites it.
type MeetingDeliberation struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	ApplicationID  snowflake.ID  `gorm:"column:application_id;not null;uniqueIndex" json:"application_id"`
	Decision       string        `gorm:"not null" json:"decision"`
	ApprovedAmount *float64      `gorm:"column:approved_amount;type:numeric(14,2)" json:"approved_amount,omitempty"`
	MeetingDate    *time.Time    `gorm:"column:meeting_date" json:"meeting_date,omitempty"`
	VotesFor       *int          `gorm:"column:votes_for" json:"votes_for,omitempty"`
	VotesAgainst   *int          `gorm:"column:votes_against" json:"votes_against,omitempty"`
	VotesAbstain   *int          `gorm:"column:votes_abstain" json:"votes_abstain,omitempty"`
	VotingNotes    string        `gorm:"column:voting_notes;type:text;not null;default:''" json:"voting_notes"`
	Comment        string        `gorm:"type:text;not null;default:''" json:"comment"`
	RecordedBy     *snowflake.ID `gorm:"column:recorded_by" json:"recorded_by,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MeetingDeliberation) TableName() string { return "meeting_deliberations" }

// PresidentDecision records the president's routing decision. One row
// per application, overwritten if the application comes back around.
type PresidentDecision struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	ApplicationID snowflake.ID  `gorm:"column:application_id;not null;uniqueIndex" json:"application_id"`
	Decision      string        `gorm:"not null" json:"decision"`
	Comment       string        `gorm:"type:text;not null;default:''" json:"comment"`
	DecidedBy     *snowflake.ID `gorm:"column:decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time    `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PresidentDecision) TableName() string { return "president_decisions" }
