package store

// Run operations.
const (
	OpDerive       = "derive"
	OpSimplify     = "simplify"
	OpSimplifyStep = "simplify_step"
)

// StatusOK is the status of a run that finished without error. Failed
// runs carry the error code instead.
const StatusOK = "ok"

// ExprRecord is one stored expression.
type ExprRecord struct {
	ID        string
	Canonical string
	Printed   string
}

// Run is one recorded operation.
type Run struct {
	ID            string
	Op            string
	InputID       string
	OutputID      string // empty if the run produced no tree
	Status        string
	Message       string
	Passes        int
	MaxPasses     int
	Seq           int64
	EngineVersion string
}

// Pass is the tree produced by one pass of a run.
type Pass struct {
	RunID  string
	Pass   int
	ExprID string
}
