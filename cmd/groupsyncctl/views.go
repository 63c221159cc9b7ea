package main

import (
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

type memberView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	IsCreator bool   `json:"is_creator"`
}

type groupJSON struct {
	ID         int64        `json:"id"`
	SectionID  int64        `json:"section_id"`
	Name       string       `json:"name"`
	MaxMembers int          `json:"max_members"`
	Members    []memberView `json:"members"`
	CreatedAt  string       `json:"created_at"`
}

type mismatchView struct {
	Op       string `json:"op"`
	MemberID int64  `json:"member_id,omitempty"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

type resultJSON struct {
	GroupID    int64          `json:"group_id"`
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	Saved      int            `json:"saved"`
	Total      int            `json:"total"`
	Attempts   int            `json:"attempts"`
	Escalated  bool           `json:"escalated"`
	Mismatches []mismatchView `json:"mismatches"`
	Trace      []string       `json:"trace"`
}

func groupView(group *domain.Group) groupJSON {
	members := make([]memberView, 0, len(group.Members))
	for _, m := range group.Members {
		members = append(members, memberView{ID: m.ID, Name: m.DisplayName, Email: m.ContactEmail, IsCreator: m.IsCreator})
	}
	return groupJSON{
		ID:         group.ID,
		SectionID:  group.SectionID,
		Name:       group.Name,
		MaxMembers: group.MaxMembers,
		Members:    members,
		CreatedAt:  group.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func resultView(result *domain.ReconcileResult) resultJSON {
	mismatches := make([]mismatchView, 0, len(result.Mismatches))
	for _, m := range result.Mismatches {
		mismatches = append(mismatches, mismatchView{
			Op:       string(m.Op),
			MemberID: m.MemberID,
			Name:     m.Name,
			Reason:   m.Reason,
		})
	}
	trace := make([]string, 0, len(result.Trace))
	for _, s := range result.Trace {
		trace = append(trace, string(s))
	}
	return resultJSON{
		GroupID:    result.GroupID,
		RunID:      result.RunID,
		Status:     string(result.Status),
		ErrorKind:  result.ErrorKind,
		Saved:      result.Saved,
		Total:      result.Total,
		Attempts:   result.Attempts,
		Escalated:  result.Escalated,
		Mismatches: mismatches,
		Trace:      trace,
	}
}
