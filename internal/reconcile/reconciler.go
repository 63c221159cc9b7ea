package reconcile

import (
	"context"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/domain"
	"github.com/bagdasarian/uniportal-groups/internal/metrics"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	channelPrimary    = "primary"
	channelEscalation = "escalation"
)

type Options struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Deadline    time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:  2,
		BaseBackoff: 200 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		Deadline:    12 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = defaults.BaseBackoff
	}
	if o.MaxBackoff < o.BaseBackoff {
		o.MaxBackoff = o.BaseBackoff
	}
	if o.Deadline <= 0 {
		o.Deadline = defaults.Deadline
	}
	return o
}

// Reconciler приводит состав группы к желаемому списку:
// проверка, diff, применение, сверка, повторы и эскалация.
type Reconciler struct {
	primary    repository.MemberStore
	escalation repository.MemberStore
	opts       Options
	locks      *GroupLocks
	log        *zap.Logger
	metrics    *metrics.Metrics

	sleep    func(ctx context.Context, d time.Duration) error
	newRunID func() string
}

// NewReconciler создает движок синхронизации; escalation может быть nil
func NewReconciler(primary, escalation repository.MemberStore, opts Options, log *zap.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		primary:    primary,
		escalation: escalation,
		opts:       opts.withDefaults(),
		locks:      NewGroupLocks(),
		log:        log,
		metrics:    m,
		sleep:      waitWithContext,
		newRunID:   uuid.NewString,
	}
}

// InFlight сообщает, идет ли сейчас синхронизация группы
func (r *Reconciler) InFlight(groupID int64) bool {
	return r.locks.InFlight(groupID)
}

// Reconcile возвращает ошибку только если синхронизация не начиналась:
// ошибка проверки или уже идущий запуск. Итог запуска, в том числе неудачный,
// возвращается в ReconcileResult.
func (r *Reconciler) Reconcile(ctx context.Context, group *domain.Group, desired []domain.DesiredMember) (*domain.ReconcileResult, error) {
	if err := Validate(group, desired); err != nil {
		r.log.Info("desired member list rejected",
			zap.Int64("group_id", group.ID),
			zap.Error(err),
		)
		return nil, err
	}

	release, ok := r.locks.TryAcquire(group.ID)
	if !ok {
		r.metrics.ObserveRejected()
		r.log.Info("reconciliation already in progress", zap.Int64("group_id", group.ID))
		return nil, domain.ErrReconciliationInProgress
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, r.opts.Deadline)
	defer cancel()

	started := time.Now()
	run := r.newRun(group, desired)

	if duplicates := DuplicateNames(run.desired); len(duplicates) > 0 {
		run.log.Warn("desired list contains duplicate display names", zap.Strings("names", duplicates))
	}
	run.log.Info("member reconciliation started", zap.Int("desired", len(run.desired)))

	result := run.execute(ctx)

	r.metrics.ObserveRun(string(result.Status), result.ErrorKind, time.Since(started))
	run.log.Info("member reconciliation finished",
		zap.String("status", string(result.Status)),
		zap.String("error_kind", result.ErrorKind),
		zap.Int("saved", result.Saved),
		zap.Int("total", result.Total),
		zap.Int("attempts", result.Attempts),
		zap.Bool("escalated", result.Escalated),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}

// run - состояние одного запуска. Не разделяется между горутинами.
type run struct {
	r     *Reconciler
	group *domain.Group
	log   *zap.Logger

	// desired - рабочая копия списка; сюда записываются id вставленных строк
	desired  []domain.DesiredMember
	baseline map[int64]bool
	reasons  map[opKey]string

	snapshot []domain.Member
	residual Diff
	diffed   bool

	result *domain.ReconcileResult
}

func (r *Reconciler) newRun(group *domain.Group, desired []domain.DesiredMember) *run {
	runID := r.newRunID()
	return &run{
		r:       r,
		group:   group,
		log:     r.log.With(zap.String("run_id", runID), zap.Int64("group_id", group.ID)),
		desired: NormalizeDesired(desired),
		reasons: make(map[opKey]string),
		result: &domain.ReconcileResult{
			GroupID: group.ID,
			RunID:   runID,
			Total:   len(desired),
			Trace:   []domain.ReconcileState{domain.StateRequested},
		},
	}
}

func (run *run) enter(state domain.ReconcileState) {
	run.result.Trace = append(run.result.Trace, state)
	run.log.Debug("reconcile state", zap.String("state", string(state)))
}

func (run *run) execute(ctx context.Context) *domain.ReconcileResult {
	primaryExec := NewExecutor(run.r.primary, channelPrimary, run.log, run.r.metrics)
	verifier := NewVerifier(run.r.primary)

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = run.r.opts.BaseBackoff
	retry.MaxInterval = run.r.opts.MaxBackoff
	retry.MaxElapsedTime = 0
	retry.Reset()

	var current []domain.Member
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			run.enter(domain.StateRetrying)
			if err := run.r.sleep(ctx, retry.NextBackOff()); err != nil {
				return run.timeout(err)
			}
		}

		run.enter(domain.StateApplying)
		run.result.Attempts++

		if current == nil {
			members, err := run.r.primary.FetchMembers(ctx, run.group.ID)
			if err != nil {
				if ctx.Err() != nil {
					return run.timeout(ctx.Err())
				}
				run.log.Warn("failed to read group members", zap.Int("attempt", attempt+1), zap.Error(err))
				if attempt >= run.r.opts.MaxRetries {
					break
				}
				continue
			}
			current = members
		}
		if run.baseline == nil {
			run.baseline = memberIDs(current)
		}

		run.adopt(current)
		diff := ComputeDiff(current, run.desired)
		run.snapshot, run.residual, run.diffed = current, diff, true

		report := primaryExec.ApplyWithin(ctx, run.group.ID, diff, run.headroom(current))
		run.record(report)
		if ctx.Err() != nil {
			return run.timeout(ctx.Err())
		}

		run.enter(domain.StateVerifying)
		verification, err := verifier.Verify(ctx, run.group.ID, run.desired, diff)
		if err != nil {
			if ctx.Err() != nil {
				return run.timeout(ctx.Err())
			}
			run.log.Warn("failed to verify group members", zap.Int("attempt", attempt+1), zap.Error(err))
			current = nil
			if attempt >= run.r.opts.MaxRetries {
				break
			}
			continue
		}

		if run.adopt(verification.Snapshot) {
			verification = Evaluate(verification.Snapshot, run.desired, diff)
		}
		run.snapshot, run.residual = verification.Snapshot, verification.Residual
		current = verification.Snapshot

		if verification.Status == Converged {
			return run.converged()
		}
		run.log.Info("group members not converged",
			zap.String("status", string(verification.Status)),
			zap.Int("attempt", attempt+1),
			zap.Int("residual", verification.Residual.Size()),
		)
		if attempt >= run.r.opts.MaxRetries || run.escalateNow(verification.Status, report) {
			break
		}
	}

	return run.escalate(ctx)
}

// escalateNow - расхождение без временных отказов сразу уходит в эскалацию,
// если есть альтернативный канал
func (run *run) escalateNow(status ConvergenceStatus, report ExecutionReport) bool {
	if status != Diverged || run.r.escalation == nil {
		return false
	}
	return !report.Retryable()
}

// escalate - одна попытка через альтернативный канал с минимальным остатком
func (run *run) escalate(ctx context.Context) *domain.ReconcileResult {
	run.enter(domain.StateEscalated)
	run.result.Escalated = true
	run.r.metrics.ObserveEscalation()

	if run.r.escalation == nil {
		run.log.Warn("no escalation channel configured")
		return run.failed(domain.CodeConvergenceFailure)
	}

	current, err := run.r.escalation.FetchMembers(ctx, run.group.ID)
	if err != nil {
		if ctx.Err() != nil {
			return run.timeout(ctx.Err())
		}
		run.log.Error("escalation channel read failed", zap.Error(err))
		return run.failed(domain.CodeConvergenceFailure)
	}

	if run.baseline == nil {
		run.baseline = memberIDs(current)
	}
	run.adopt(current)
	residual := ComputeDiff(current, run.desired)
	run.snapshot, run.residual, run.diffed = current, residual, true
	run.log.Info("escalating residual member changes", zap.Int("residual", residual.Size()))

	executor := NewExecutor(run.r.escalation, channelEscalation, run.log, run.r.metrics)
	report := executor.ApplyWithin(ctx, run.group.ID, residual, run.headroom(current))
	run.record(report)
	if ctx.Err() != nil {
		return run.timeout(ctx.Err())
	}

	verification, err := NewVerifier(run.r.escalation).Verify(ctx, run.group.ID, run.desired, residual)
	if err != nil {
		if ctx.Err() != nil {
			return run.timeout(ctx.Err())
		}
		run.log.Error("escalation channel verification failed", zap.Error(err))
		return run.failed(domain.CodeConvergenceFailure)
	}

	if run.adopt(verification.Snapshot) {
		verification = Evaluate(verification.Snapshot, run.desired, residual)
	}
	run.snapshot, run.residual = verification.Snapshot, verification.Residual
	if verification.Status == Converged {
		return run.converged()
	}
	return run.failed(domain.CodeConvergenceFailure)
}

// adopt связывает записи без действующего id со строками, созданными в этом же запуске,
// если ответ на вставку потерялся. Строки, бывшие в группе до запуска, не трогаются.
func (run *run) adopt(current []domain.Member) bool {
	if run.baseline == nil {
		return false
	}
	present := memberIDs(current)
	bound := make(map[int64]bool, len(run.desired))
	for _, entry := range run.desired {
		if present[entry.ID] {
			bound[entry.ID] = true
		}
	}

	adopted := false
	for _, member := range current {
		if member.IsCreator || run.baseline[member.ID] || bound[member.ID] {
			continue
		}
		for i := range run.desired {
			entry := &run.desired[i]
			if present[entry.ID] || !sameIdentity(entry.Name, entry.Email, member.DisplayName, member.ContactEmail) {
				continue
			}
			entry.ID = member.ID
			bound[member.ID] = true
			adopted = true
			run.log.Debug("adopted member created earlier in this run",
				zap.Int64("member_id", member.ID),
				zap.Int("index", i),
			)
			break
		}
	}
	return adopted
}

func (run *run) record(report ExecutionReport) {
	for _, inserted := range report.Inserted {
		run.desired[inserted.Index].ID = inserted.Member.ID
		delete(run.reasons, insertKey(inserted.Index))
	}
	for _, id := range report.Updated {
		delete(run.reasons, rowKey(domain.OpUpdate, id))
	}
	for _, id := range report.Deleted {
		delete(run.reasons, rowKey(domain.OpDelete, id))
	}
	for _, outcome := range report.Failed {
		run.reasons[outcome.key()] = outcome.reason()
	}
}

func (run *run) headroom(current []domain.Member) int {
	return run.group.MaxMembers - len(current)
}

func (run *run) converged() *domain.ReconcileResult {
	run.enter(domain.StateConverged)
	run.result.Status = domain.StatusConverged
	run.result.Saved = run.result.Total
	run.result.Mismatches = []domain.MemberDiff{}
	return run.result
}

func (run *run) failed(kind string) *domain.ReconcileResult {
	run.enter(domain.StateFailed)
	run.result.Status = domain.StatusFailed
	run.result.ErrorKind = kind
	run.result.Mismatches = run.residual.Mismatches(run.snapshot, run.reasons)
	if !run.diffed {
		// состав группы так и не был прочитан
		return run.result
	}

	unsaved := len(run.residual.ToInsert) + len(run.residual.ToUpdate)
	run.result.Saved = max(run.result.Total-unsaved, 0)
	return run.result
}

func (run *run) timeout(err error) *domain.ReconcileResult {
	run.log.Warn("member reconciliation interrupted", zap.Error(err))
	return run.failed(domain.CodeTimeout)
}

func memberIDs(members []domain.Member) map[int64]bool {
	ids := make(map[int64]bool, len(members))
	for _, member := range members {
		ids[member.ID] = true
	}
	return ids
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
