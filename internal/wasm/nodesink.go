package wasm

// NodeSink is the external collaborator that constructs executable block/if/loop/call
// nodes; the decoder hands it children lists and metadata and never interprets the
// returned node itself beyond storing it on a parent Block or CodeEntry.Root (spec §6).
//
// BlockNodeSink is the default implementation: it materializes the spec's own Block/
// CallStubNode/IndirectCallNode shapes directly, which is what a decoder-only module
// needs to hand a downstream executor without that executor also depending on this
// package's validator internals.
type NodeSink interface {
	NewRootNode(instance interface{}, entry *CodeEntry) interface{}
	NewBlockNode(spec *Block) interface{}
	NewLoopNode(spec *Block, inner interface{}) interface{}
	NewIfNode(spec *Block) interface{}
	NewCallStubNode(funcIdx Index) interface{}
	NewIndirectCallNode(typeIdx Index) interface{}
}

// CallStubNode is a placeholder call node carrying the callee's function index. The
// decoder enqueues no LinkerQueue action to resolve it to a callable.
type CallStubNode struct {
	FuncIdx Index
}

// IndirectCallNode is a placeholder call_indirect node, resolved against the table and
// the callee's type at call time, not at link time (no closure capture needed).
type IndirectCallNode struct {
	TypeIdx Index
}

// LoopNode wraps a Block with no fields of its own beyond the inner child sequence;
// kept distinct from Block so a NodeSink can tell loop headers apart from plain blocks
// without a type switch on BlockKind.
type LoopNode struct {
	Spec  *Block
	Inner interface{}
}

// RootNode is what the default sink's NewRootNode returns. The decoder does not call
// NewRootNode, so CodeEntry.Root never holds a RootNode after DecodeModule.
type RootNode struct {
	Instance interface{}
	Entry    *CodeEntry
}

// BlockNodeSink is the default, in-process NodeSink: nodes are plain structs with no
// behavior, suitable for an executor (interpreter or compiler) built on top of this
// package to type-switch over.
type BlockNodeSink struct{}

func NewBlockNodeSink() *BlockNodeSink { return &BlockNodeSink{} }

func (BlockNodeSink) NewRootNode(instance interface{}, entry *CodeEntry) interface{} {
	return &RootNode{Instance: instance, Entry: entry}
}

func (BlockNodeSink) NewBlockNode(spec *Block) interface{} { return spec }

func (BlockNodeSink) NewLoopNode(spec *Block, inner interface{}) interface{} {
	return &LoopNode{Spec: spec, Inner: inner}
}

func (BlockNodeSink) NewIfNode(spec *Block) interface{} { return spec }

func (BlockNodeSink) NewCallStubNode(funcIdx Index) interface{} {
	return &CallStubNode{FuncIdx: funcIdx}
}

func (BlockNodeSink) NewIndirectCallNode(typeIdx Index) interface{} {
	return &IndirectCallNode{TypeIdx: typeIdx}
}
