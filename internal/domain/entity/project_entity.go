package entity

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// MemberRole is a user's role inside one project.
type MemberRole string

const (
	MemberOwner   MemberRole = "owner"
	MemberManager MemberRole = "manager"
	MemberRegular MemberRole = "member"
	MemberViewer  MemberRole = "viewer"
)

type Member struct {
	UserID   string     `json:"user_id" bson:"user_id" validate:"required"`
	Role     MemberRole `json:"role" bson:"role" validate:"required,oneof=owner manager member viewer"`
	JoinedAt time.Time  `json:"joined_at" bson:"joined_at"`
}

type Project struct {
	ID          string        `json:"id" bson:"_id"`
	Name        string        `json:"name" bson:"name" validate:"required,max=100"`
	Description string        `json:"description" bson:"description" validate:"max=1000"`
	OwnerID     string        `json:"owner_id" bson:"owner_id" validate:"required"`
	Members     []Member      `json:"members" bson:"members" validate:"min=1,max=500,dive"`
	Status      ProjectStatus `json:"status" bson:"status" validate:"required,oneof=active on_hold completed archived"`
	StartDate   *time.Time    `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty" bson:"end_date,omitempty"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

func (p *Project) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fieldError("end_date", "must not be before start_date")
	}
	return nil
}

func (p *Project) Member(userID string) (*Member, bool) {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return &p.Members[i], true
		}
	}
	return nil, false
}

func (p *Project) IsMember(userID string) bool {
	_, ok := p.Member(userID)
	return ok
}

// CanManage reports whether userID may edit the project and its membership.
func (p *Project) CanManage(userID string) bool {
	m, ok := p.Member(userID)
	return ok && (m.Role == MemberOwner || m.Role == MemberManager)
}

// CanContribute reports whether userID may create and edit tasks in the project.
func (p *Project) CanContribute(userID string) bool {
	m, ok := p.Member(userID)
	return ok && m.Role != MemberViewer
}

func (p *Project) MemberIDs() []string {
	out := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		out = append(out, m.UserID)
	}
	return out
}

func (p *Project) RemoveMember(userID string) bool {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return true
		}
	}
	return false
}
