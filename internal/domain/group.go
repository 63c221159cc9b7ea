package domain

import "time"

type Section struct {
	ID         int64
	Name       string
	MaxMembers int
}

type Group struct {
	ID         int64
	SectionID  int64
	Name       string
	MaxMembers int
	CreatorID  string
	Creator    Member
	Members    []Member
	CreatedAt  time.Time
}

type Member struct {
	ID            int64
	GroupID       int64
	DisplayName   string
	ContactEmail  string
	IsCreator     bool
	OwnerIdentity *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// DesiredMember - запись из списка, присланного создателем группы.
// ID == 0 означает нового участника.
type DesiredMember struct {
	ID        int64
	Name      string
	Email     string
	IsCreator bool
}

// MemberFields - изменяемые поля участника
type MemberFields struct {
	DisplayName  string
	ContactEmail string
}
