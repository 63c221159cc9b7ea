package reconcile

import (
	"context"
	"fmt"
	"math"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/metrics"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
	"go.uber.org/zap"
)

// RowOutcome - неудачная операция над одной строкой
type RowOutcome struct {
	Op       domain.MemberOp
	MemberID int64
	Index    int
	Name     string
	Kind     domain.StoreErrorKind
	Err      error
}

func (o RowOutcome) key() opKey {
	if o.Op == domain.OpInsert {
		return insertKey(o.Index)
	}
	return rowKey(o.Op, o.MemberID)
}

type InsertedMember struct {
	Index  int
	Member domain.Member
}

type ExecutionReport struct {
	Inserted []InsertedMember
	Updated  []int64
	Deleted  []int64
	Failed   []RowOutcome
}

func (r ExecutionReport) Succeeded() int {
	return len(r.Inserted) + len(r.Updated) + len(r.Deleted)
}

func (r ExecutionReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// HardFailures - отказы, которые повтор через тот же канал не исправит
func (r ExecutionReport) HardFailures() []RowOutcome {
	var hard []RowOutcome
	for _, outcome := range r.Failed {
		if outcome.Kind == domain.StoreErrorConstraint {
			hard = append(hard, outcome)
		}
	}
	return hard
}

// Retryable - все отказы могут пройти при повторе через тот же канал
func (r ExecutionReport) Retryable() bool {
	return r.HasFailures() && len(r.HardFailures()) == 0
}

// Executor применяет diff через один канал хранилища.
// Порядок фиксирован: вставки, обновления, удаления. Ошибка одной строки
// не прерывает остальные.
type Executor struct {
	store   repository.MemberStore
	channel string
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewExecutor(store repository.MemberStore, channel string, log *zap.Logger, m *metrics.Metrics) *Executor {
	return &Executor{
		store:   store,
		channel: channel,
		log:     log.With(zap.String("channel", channel)),
		metrics: m,
	}
}

// Apply применяет diff без ограничения по числу строк
func (e *Executor) Apply(ctx context.Context, groupID int64, diff Diff) ExecutionReport {
	return e.ApplyWithin(ctx, groupID, diff, math.MaxInt32)
}

// ApplyWithin применяет diff, не превышая headroom свободных мест в группе.
// Вставки, которым не хватило места, откладываются до удалений.
func (e *Executor) ApplyWithin(ctx context.Context, groupID int64, diff Diff, headroom int) ExecutionReport {
	var report ExecutionReport

	var deferred []MemberInsert
	for _, ins := range diff.ToInsert {
		if headroom <= 0 {
			deferred = append(deferred, ins)
			continue
		}
		if e.insert(ctx, groupID, ins, &report) {
			headroom--
		}
	}

	for _, upd := range diff.ToUpdate {
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, e.failed(domain.OpUpdate, upd.ID, upd.Index, upd.Fields.DisplayName, err))
			continue
		}
		if err := e.store.UpdateMember(ctx, groupID, upd.ID, upd.Fields); err != nil {
			report.Failed = append(report.Failed, e.failed(domain.OpUpdate, upd.ID, upd.Index, upd.Fields.DisplayName, err))
			continue
		}
		e.metrics.ObserveRow(e.channel, string(domain.OpUpdate), "ok")
		report.Updated = append(report.Updated, upd.ID)
	}

	if len(diff.ToDelete) > 0 {
		headroom += e.applyDeletes(ctx, groupID, diff.ToDelete, &report)
	}

	for _, ins := range deferred {
		if headroom <= 0 {
			report.Failed = append(report.Failed, e.failed(domain.OpInsert, 0, ins.Index, ins.Member.Name,
				domain.NewStoreError(domain.StoreErrorConstraint, "insert member", domain.ErrCapacityExceeded)))
			continue
		}
		if e.insert(ctx, groupID, ins, &report) {
			headroom--
		}
	}

	if report.HasFailures() {
		e.log.Warn("member changes partially applied",
			zap.Int64("group_id", groupID),
			zap.Int("succeeded", report.Succeeded()),
			zap.Int("failed", len(report.Failed)),
		)
	}

	return report
}

func (e *Executor) insert(ctx context.Context, groupID int64, ins MemberInsert, report *ExecutionReport) bool {
	if err := ctx.Err(); err != nil {
		report.Failed = append(report.Failed, e.failed(domain.OpInsert, 0, ins.Index, ins.Member.Name, err))
		return false
	}
	member := &domain.Member{
		GroupID:      groupID,
		DisplayName:  ins.Member.Name,
		ContactEmail: ins.Member.Email,
	}
	if err := e.store.InsertMember(ctx, member); err != nil {
		report.Failed = append(report.Failed, e.failed(domain.OpInsert, 0, ins.Index, ins.Member.Name, err))
		return false
	}
	e.metrics.ObserveRow(e.channel, string(domain.OpInsert), "ok")
	report.Inserted = append(report.Inserted, InsertedMember{Index: ins.Index, Member: *member})
	return true
}

// applyDeletes удаляет строки одним запросом; если он не прошел,
// каждая строка удаляется отдельно. "Не найдено" считается успехом.
func (e *Executor) applyDeletes(ctx context.Context, groupID int64, ids []int64, report *ExecutionReport) int {
	before := len(report.Deleted)
	if err := ctx.Err(); err != nil {
		for _, id := range ids {
			report.Failed = append(report.Failed, e.failed(domain.OpDelete, id, 0, "", err))
		}
		return 0
	}

	deleted, err := e.store.DeleteMembers(ctx, groupID, ids)
	if err == nil || domain.IsRowNotFound(err) {
		if len(deleted) < len(ids) {
			e.log.Debug("some members were already deleted",
				zap.Int64("group_id", groupID),
				zap.Int("requested", len(ids)),
				zap.Int("deleted", len(deleted)),
			)
		}
		for _, id := range ids {
			e.metrics.ObserveRow(e.channel, string(domain.OpDelete), "ok")
			report.Deleted = append(report.Deleted, id)
		}
		return len(report.Deleted) - before
	}

	if len(ids) == 1 {
		report.Failed = append(report.Failed, e.failed(domain.OpDelete, ids[0], 0, "", err))
		return 0
	}

	e.log.Warn("batch delete failed, deleting members one by one",
		zap.Int64("group_id", groupID),
		zap.Error(err),
	)

	for _, id := range ids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Failed = append(report.Failed, e.failed(domain.OpDelete, id, 0, "", ctxErr))
			continue
		}
		_, err := e.store.DeleteMembers(ctx, groupID, []int64{id})
		if err != nil && !domain.IsRowNotFound(err) {
			report.Failed = append(report.Failed, e.failed(domain.OpDelete, id, 0, "", err))
			continue
		}
		e.metrics.ObserveRow(e.channel, string(domain.OpDelete), "ok")
		report.Deleted = append(report.Deleted, id)
	}
	return len(report.Deleted) - before
}

func (e *Executor) failed(op domain.MemberOp, id int64, index int, name string, err error) RowOutcome {
	kind := domain.StoreErrorKindOf(err)
	e.metrics.ObserveRow(e.channel, string(op), string(kind))
	e.log.Debug("member operation failed",
		zap.String("op", string(op)),
		zap.Int64("member_id", id),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return RowOutcome{
		Op:       op,
		MemberID: id,
		Index:    index,
		Name:     name,
		Kind:     kind,
		Err:      err,
	}
}

func (o RowOutcome) reason() string {
	switch o.Kind {
	case domain.StoreErrorConstraint:
		return fmt.Sprintf("rejected by the database: %v", o.Err)
	case domain.StoreErrorNotFound:
		return "member no longer exists"
	default:
		return "database temporarily unavailable"
	}
}
