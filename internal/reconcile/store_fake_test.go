package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
)

var errUnavailable = errors.New("connection reset by peer")

func transientErr(op string) error {
	return domain.NewStoreError(domain.StoreErrorTransient, op, errUnavailable)
}

func constraintErr(op string) error {
	return domain.NewStoreError(domain.StoreErrorConstraint, op, errors.New("violates check constraint"))
}

// memoryStore - MemberStore в памяти с внедряемыми отказами.
// Ключи отказов: "fetch", "insert:<имя>", "update:<id>", "delete:<id>".
type memoryStore struct {
	mu      sync.Mutex
	groupID int64
	rows    map[int64]domain.Member
	nextID  int64
	calls   []string

	failures map[string][]error
	// lostReplies - вставка проходит, но ответ теряется
	lostReplies map[string]int
	// strictDelete - удаление отсутствующей строки возвращает not_found
	strictDelete bool
	// block - если задан, каждый вызов ждет закрытия канала
	block chan struct{}
	// delay - задержка каждого вызова с учетом контекста
	delay time.Duration
	// afterFetch вызывается после каждого чтения
	afterFetch func(s *memoryStore)
	// peak - наибольшее число строк за все время
	peak int
}

func newMemoryStore(groupID int64, members ...domain.Member) *memoryStore {
	s := &memoryStore{
		groupID:     groupID,
		rows:        make(map[int64]domain.Member),
		nextID:      100,
		failures:    make(map[string][]error),
		lostReplies: make(map[string]int),
	}
	for _, member := range members {
		member.GroupID = groupID
		s.rows[member.ID] = member
	}
	s.peak = len(s.rows)
	return s
}

func creatorRow(id int64, name string) domain.Member {
	owner := "creator-identity"
	return domain.Member{ID: id, DisplayName: name, IsCreator: true, OwnerIdentity: &owner}
}

func memberRow(id int64, name string) domain.Member {
	return domain.Member{ID: id, DisplayName: name}
}

func (s *memoryStore) failNext(key string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = append(s.failures[key], errs...)
}

func (s *memoryStore) loseInsertReply(name string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostReplies["insert:"+name] += times
}

func (s *memoryStore) popFailure(key string) error {
	queue := s.failures[key]
	if len(queue) == 0 {
		return nil
	}
	s.failures[key] = queue[1:]
	return queue[0]
}

func (s *memoryStore) hasFailure(key string) bool {
	return len(s.failures[key]) > 0
}

func (s *memoryStore) enter(ctx context.Context, call string) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.delay > 0 {
		if err := waitWithContext(ctx, s.delay); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *memoryStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *memoryStore) FetchMembers(ctx context.Context, groupID int64) ([]domain.Member, error) {
	if err := s.enter(ctx, "fetch"); err != nil {
		return nil, err
	}
	members, err := s.fetch(groupID)
	if err == nil && s.afterFetch != nil {
		s.afterFetch(s)
	}
	return members, err
}

func (s *memoryStore) fetch(groupID int64) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.popFailure("fetch"); err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0, len(s.rows))
	for _, member := range s.rows {
		if member.GroupID == groupID {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].IsCreator != members[j].IsCreator {
			return members[i].IsCreator
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}

func (s *memoryStore) InsertMember(ctx context.Context, member *domain.Member) error {
	key := "insert:" + member.DisplayName
	if err := s.enter(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.popFailure(key); err != nil {
		return err
	}
	if member.IsCreator {
		return constraintErr("insert member")
	}
	s.nextID++
	row := *member
	row.ID = s.nextID
	row.CreatedAt = time.Now()
	s.rows[row.ID] = row
	s.peak = max(s.peak, len(s.rows))

	if s.lostReplies[key] > 0 {
		s.lostReplies[key]--
		return transientErr("insert member")
	}
	member.ID = row.ID
	member.CreatedAt = row.CreatedAt
	return nil
}

func (s *memoryStore) UpdateMember(ctx context.Context, groupID, id int64, fields domain.MemberFields) error {
	key := fmt.Sprintf("update:%d", id)
	if err := s.enter(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.popFailure(key); err != nil {
		return err
	}
	row, ok := s.rows[id]
	if !ok || row.GroupID != groupID || row.IsCreator {
		return domain.NewStoreError(domain.StoreErrorNotFound, "update member", domain.ErrRowNotFound)
	}
	row.DisplayName = fields.DisplayName
	row.ContactEmail = fields.ContactEmail
	now := time.Now()
	row.UpdatedAt = &now
	s.rows[id] = row
	return nil
}

func (s *memoryStore) DeleteMembers(ctx context.Context, groupID int64, ids []int64) ([]int64, error) {
	if err := s.enter(ctx, fmt.Sprintf("delete:%v", ids)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) > 1 {
		for _, id := range ids {
			if s.hasFailure(fmt.Sprintf("delete:%d", id)) {
				return nil, transientErr("delete members")
			}
		}
	} else if len(ids) == 1 {
		if err := s.popFailure(fmt.Sprintf("delete:%d", ids[0])); err != nil {
			return nil, err
		}
	}

	var deleted []int64
	for _, id := range ids {
		row, ok := s.rows[id]
		if !ok || row.GroupID != groupID || row.IsCreator {
			continue
		}
		delete(s.rows, id)
		deleted = append(deleted, id)
	}
	if s.strictDelete && len(deleted) < len(ids) {
		return deleted, domain.NewStoreError(domain.StoreErrorNotFound, "delete members", domain.ErrRowNotFound)
	}
	return deleted, nil
}

func (s *memoryStore) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
}

// names - имена участников без создателя, по возрастанию id
func (s *memoryStore) names() []string {
	members, _ := s.fetch(s.groupID)
	var names []string
	for _, member := range members {
		if !member.IsCreator {
			names = append(names, member.DisplayName)
		}
	}
	return names
}

func (s *memoryStore) row(id int64) (domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	return row, ok
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
