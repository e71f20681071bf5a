package wasm

// LinkerAction is a deferred action queued during decode and run once a module's
// dependencies (imports, other modules) are resolved. Every field it closes over is a
// small integer or a byte slice — never a pointer to an unresolved entity (spec §9
// "Linker actions").
type LinkerAction func(ctx interface{}, instance interface{})

// LinkerQueue is the external collaborator that accepts deferred actions to run after
// parsing: call-site resolution, and data/element/global segment initialization (spec
// §1, §6). SliceLinkerQueue is the default, order-preserving implementation.
type LinkerQueue interface {
	Enqueue(action LinkerAction)
}

// SliceLinkerQueue is the default LinkerQueue: a plain append-only slice, run in
// enqueue order by Run. This mirrors how wazero resolves call targets and segment
// writes in a single post-decode pass over the already-built Module.
type SliceLinkerQueue struct {
	actions []LinkerAction
}

func NewSliceLinkerQueue() *SliceLinkerQueue { return &SliceLinkerQueue{} }

func (q *SliceLinkerQueue) Enqueue(action LinkerAction) {
	q.actions = append(q.actions, action)
}

// Run executes every queued action, in enqueue order, against ctx and instance.
func (q *SliceLinkerQueue) Run(ctx interface{}, instance interface{}) {
	for _, action := range q.actions {
		action(ctx, instance)
	}
}

func (q *SliceLinkerQueue) Len() int { return len(q.actions) }
