// Package rest - привилегированный канал к таблице group_members через
// PostgREST-совместимый HTTP API с сервисным ключом. Контракт совпадает с
// repository.MemberStore, используется только при эскалации.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

const membersPath = "/rest/v1/group_members"

type MemberClientOptions struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration
}

type MemberClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	userAgent  string
}

type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("admin api request failed: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("admin api request failed: status=%d message=%s", e.StatusCode, e.Message)
}

func NewMemberClient(opts MemberClientOptions) *MemberClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "uniportal-groups"
	}
	return &MemberClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		serviceKey: strings.TrimSpace(opts.ServiceKey),
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

type memberRow struct {
	ID            int64      `json:"id"`
	GroupID       int64      `json:"group_id"`
	DisplayName   string     `json:"display_name"`
	ContactEmail  *string    `json:"contact_email"`
	IsCreator     bool       `json:"is_creator"`
	OwnerIdentity *string    `json:"owner_identity"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

func (r memberRow) toDomain() domain.Member {
	member := domain.Member{
		ID:            r.ID,
		GroupID:       r.GroupID,
		DisplayName:   r.DisplayName,
		IsCreator:     r.IsCreator,
		OwnerIdentity: r.OwnerIdentity,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.ContactEmail != nil {
		member.ContactEmail = *r.ContactEmail
	}
	return member
}

type insertPayload struct {
	GroupID      int64   `json:"group_id"`
	DisplayName  string  `json:"display_name"`
	ContactEmail *string `json:"contact_email"`
	IsCreator    bool    `json:"is_creator"`
}

type updatePayload struct {
	DisplayName  string    `json:"display_name"`
	ContactEmail *string   `json:"contact_email"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *MemberClient) FetchMembers(ctx context.Context, groupID int64) ([]domain.Member, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("group_id", "eq."+strconv.FormatInt(groupID, 10))
	query.Set("order", "is_creator.desc,id.asc")

	var rows []memberRow
	if err := c.doJSON(ctx, "fetch members", http.MethodGet, query, nil, &rows); err != nil {
		return nil, err
	}

	members := make([]domain.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.toDomain())
	}
	return members, nil
}

func (c *MemberClient) InsertMember(ctx context.Context, member *domain.Member) error {
	if member.IsCreator {
		return domain.NewStoreError(domain.StoreErrorConstraint, "insert member",
			errors.New("creator row is created together with the group"))
	}

	payload := insertPayload{
		GroupID:      member.GroupID,
		DisplayName:  member.DisplayName,
		ContactEmail: optionalString(member.ContactEmail),
	}

	var rows []memberRow
	if err := c.doJSON(ctx, "insert member", http.MethodPost, nil, payload, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.NewStoreError(domain.StoreErrorTransient, "insert member",
			errors.New("admin api returned no representation for inserted row"))
	}

	member.ID = rows[0].ID
	member.CreatedAt = rows[0].CreatedAt
	member.UpdatedAt = nil
	return nil
}

func (c *MemberClient) UpdateMember(ctx context.Context, groupID, id int64, fields domain.MemberFields) error {
	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatInt(id, 10))
	query.Set("group_id", "eq."+strconv.FormatInt(groupID, 10))
	query.Set("is_creator", "is.false")

	payload := updatePayload{
		DisplayName:  fields.DisplayName,
		ContactEmail: optionalString(fields.ContactEmail),
		UpdatedAt:    time.Now().UTC(),
	}

	var rows []memberRow
	if err := c.doJSON(ctx, "update member", http.MethodPatch, query, payload, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.NewStoreError(domain.StoreErrorNotFound, "update member", domain.ErrRowNotFound)
	}
	return nil
}

func (c *MemberClient) DeleteMembers(ctx context.Context, groupID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	query := url.Values{}
	query.Set("group_id", "eq."+strconv.FormatInt(groupID, 10))
	query.Set("id", "in.("+strings.Join(parts, ",")+")")
	query.Set("is_creator", "is.false")

	var rows []memberRow
	if err := c.doJSON(ctx, "delete members", http.MethodDelete, query, nil, &rows); err != nil {
		return nil, err
	}

	deleted := make([]int64, 0, len(rows))
	for _, row := range rows {
		deleted = append(deleted, row.ID)
	}
	return deleted, nil
}

// doJSON выполняет ровно одну попытку запроса; повторы - забота вызывающего
func (c *MemberClient) doJSON(ctx context.Context, op, method string, query url.Values, payload, out any) error {
	if c.baseURL == "" || c.serviceKey == "" {
		return domain.NewStoreError(domain.StoreErrorConstraint, op, errors.New("admin api is not configured"))
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return domain.NewStoreError(domain.StoreErrorConstraint, op, err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + membersPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return domain.NewStoreError(domain.StoreErrorConstraint, op, err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewStoreError(domain.StoreErrorTransient, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewStoreError(domain.StoreErrorTransient, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := parseHTTPError(resp.StatusCode, respBody)
		return domain.NewStoreError(classifyStatus(httpErr), op, httpErr)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return domain.NewStoreError(domain.StoreErrorTransient, op, fmt.Errorf("decode admin api response: %w", err))
	}
	return nil
}

func parseHTTPError(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{
		StatusCode: status,
		Message:    strings.TrimSpace(string(body)),
	}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		httpErr.Code = parsed.Code
		if strings.TrimSpace(parsed.Message) != "" {
			httpErr.Message = parsed.Message
		}
	}
	return httpErr
}

func classifyStatus(err *HTTPError) domain.StoreErrorKind {
	switch {
	case err.StatusCode == http.StatusTooManyRequests,
		err.StatusCode == http.StatusRequestTimeout,
		err.StatusCode >= 500:
		return domain.StoreErrorTransient
	case err.StatusCode == http.StatusNotFound:
		return domain.StoreErrorNotFound
	default:
		// 409 и 400 с кодом 23xxx - нарушение ограничений, прочие 4xx тоже не повторяем
		return domain.StoreErrorConstraint
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
