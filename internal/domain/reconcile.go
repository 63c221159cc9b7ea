package domain

type ReconcileStatus string

const (
	StatusConverged ReconcileStatus = "converged"
	StatusFailed    ReconcileStatus = "failed"
)

// ReconcileState - состояние одного запуска синхронизации участников
type ReconcileState string

const (
	StateRequested ReconcileState = "requested"
	StateApplying  ReconcileState = "applying"
	StateVerifying ReconcileState = "verifying"
	StateRetrying  ReconcileState = "retrying"
	StateEscalated ReconcileState = "escalated"
	StateConverged ReconcileState = "converged"
	StateFailed    ReconcileState = "failed"
)

type MemberOp string

const (
	OpInsert MemberOp = "insert"
	OpUpdate MemberOp = "update"
	OpDelete MemberOp = "delete"
)

// MemberDiff - расхождение между желаемым и фактическим составом группы
type MemberDiff struct {
	Op       MemberOp
	MemberID int64
	Name     string
	Email    string
	Reason   string
}

type ReconcileResult struct {
	GroupID    int64
	RunID      string
	Status     ReconcileStatus
	ErrorKind  string
	Mismatches []MemberDiff
	// Saved из Total участников желаемого списка сохранены
	Saved     int
	Total     int
	Attempts  int
	Escalated bool
	Trace     []ReconcileState
}

func (r *ReconcileResult) Converged() bool {
	return r.Status == StatusConverged
}
