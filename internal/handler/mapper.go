package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

func domainGroupToHTTP(group *domain.Group) GroupResponse {
	members := group.Members
	if len(members) == 0 {
		members = []domain.Member{group.Creator}
	}

	response := make([]MemberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, MemberResponse{
			ID:        member.ID,
			Name:      member.DisplayName,
			Email:     member.ContactEmail,
			IsCreator: member.IsCreator,
		})
	}

	return GroupResponse{
		ID:         group.ID,
		SectionID:  group.SectionID,
		Name:       group.Name,
		MaxMembers: group.MaxMembers,
		CreatorID:  group.CreatorID,
		Members:    response,
		CreatedAt:  group.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func httpDesiredToDomain(req ReconcileMembersRequest) []domain.DesiredMember {
	desired := make([]domain.DesiredMember, 0, len(req.Members))
	for _, member := range req.Members {
		desired = append(desired, domain.DesiredMember{
			ID:        member.ID,
			Name:      member.Name,
			Email:     member.Email,
			IsCreator: member.IsCreator,
		})
	}
	return desired
}

func domainResultToHTTP(result *domain.ReconcileResult) ReconcileResultResponse {
	mismatches := make([]MismatchResponse, 0, len(result.Mismatches))
	for _, mismatch := range result.Mismatches {
		mismatches = append(mismatches, MismatchResponse{
			Op:       string(mismatch.Op),
			MemberID: mismatch.MemberID,
			Name:     mismatch.Name,
			Email:    mismatch.Email,
			Reason:   mismatch.Reason,
		})
	}

	trace := make([]string, 0, len(result.Trace))
	for _, state := range result.Trace {
		trace = append(trace, string(state))
	}

	return ReconcileResultResponse{
		GroupID:    result.GroupID,
		RunID:      result.RunID,
		Status:     string(result.Status),
		ErrorKind:  result.ErrorKind,
		Summary:    fmt.Sprintf("%d of %d members saved", result.Saved, result.Total),
		Saved:      result.Saved,
		Total:      result.Total,
		Attempts:   result.Attempts,
		Escalated:  result.Escalated,
		Mismatches: mismatches,
		Trace:      trace,
	}
}

// resultStatusCode - неудачный итог отдается с телом результата, чтобы показать расхождения
func resultStatusCode(result *domain.ReconcileResult) int {
	if result.Converged() {
		return http.StatusOK
	}
	return getStatusCode(result.ErrorKind)
}
