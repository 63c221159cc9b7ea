package handler

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateGroupRequest struct {
	SectionID    int64  `json:"section_id"`
	Name         string `json:"name"`
	CreatorName  string `json:"creator_name"`
	CreatorEmail string `json:"creator_email"`
}

type MemberResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	IsCreator bool   `json:"is_creator"`
}

type GroupResponse struct {
	ID         int64            `json:"id"`
	SectionID  int64            `json:"section_id"`
	Name       string           `json:"name"`
	MaxMembers int              `json:"max_members"`
	CreatorID  string           `json:"creator_id"`
	Members    []MemberResponse `json:"members"`
	CreatedAt  string           `json:"created_at"`
}

type CreateGroupResponse struct {
	Group GroupResponse `json:"group"`
}

type DesiredMemberRequest struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	IsCreator bool   `json:"is_creator,omitempty"`
}

type ReconcileMembersRequest struct {
	Members []DesiredMemberRequest `json:"members"`
}

type MismatchResponse struct {
	Op       string `json:"op"`
	MemberID int64  `json:"member_id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Reason   string `json:"reason"`
}

// ReconcileResultResponse - стабильный контракт ответа, его показывают пользователю
type ReconcileResultResponse struct {
	GroupID    int64              `json:"group_id"`
	RunID      string             `json:"run_id"`
	Status     string             `json:"status"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Summary    string             `json:"summary"`
	Saved      int                `json:"saved"`
	Total      int                `json:"total"`
	Attempts   int                `json:"attempts"`
	Escalated  bool               `json:"escalated"`
	Mismatches []MismatchResponse `json:"mismatches"`
	Trace      []string           `json:"trace"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
