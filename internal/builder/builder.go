// Package builder holds the CFG-maintaining mutation primitives for
// internal/ir: inserting and removing control-flow nodes and individual
// instructions while keeping block successor/predecessor edges, register
// use/def sets, and SSA indices consistent. Nothing here validates the
// result; that is internal/validate's job. Builder only guarantees it
// never leaves the structural invariants broken by construction.
//
// Grounded line-for-line on original_source/ir.c.
package builder

import "shaderir/internal/ir"

// --- block linking -----------------------------------------------------

func blockAddPred(block, pred *ir.Block) {
	block.Predecessors[pred] = struct{}{}
}

func linkBlocks(pred, succ1, succ2 *ir.Block) {
	pred.Successors[0] = succ1
	blockAddPred(succ1, pred)

	pred.Successors[1] = succ2
	if succ2 != nil {
		blockAddPred(succ2, pred)
	}
}

func unlinkBlocks(pred, succ *ir.Block) {
	if pred.Successors[0] == succ {
		pred.Successors[0] = pred.Successors[1]
		pred.Successors[1] = nil
	} else if pred.Successors[1] == succ {
		pred.Successors[1] = nil
	} else {
		panic("builder: unlinkBlocks: succ is not a successor of pred")
	}
	delete(succ.Predecessors, pred)
}

func unlinkBlockSuccessors(block *ir.Block) {
	if block.Successors[0] != nil {
		unlinkBlocks(block, block.Successors[0])
	}
	if block.Successors[1] != nil {
		unlinkBlocks(block, block.Successors[1])
	}
}

// moveSuccessors moves source's successor edges onto dest, leaving source
// with no successors.
func moveSuccessors(source, dest *ir.Block) {
	succ1 := source.Successors[0]
	if succ1 != nil {
		unlinkBlocks(source, succ1)
	}
	succ2 := source.Successors[1]
	if succ2 != nil {
		unlinkBlocks(source, succ2)
	}

	unlinkBlockSuccessors(dest)
	linkBlocks(dest, succ1, succ2)
}

// --- CF-node list navigation --------------------------------------------

func indexOf(list []ir.CFNode, n ir.CFNode) int {
	for i, c := range list {
		if c == n {
			return i
		}
	}
	return -1
}

// containingSlice returns a pointer to the slice field n actually lives in
// (a FunctionImpl.Body, an If.Then/Else, or a Loop.Body).
func containingSlice(n ir.CFNode) *[]ir.CFNode {
	switch p := n.Parent().(type) {
	case *ir.FunctionImpl:
		return &p.Body
	case *ir.If:
		if indexOf(p.Then, n) >= 0 {
			return &p.Then
		}
		return &p.Else
	case *ir.Loop:
		return &p.Body
	default:
		panic("builder: node has no recognized parent")
	}
}

func spliceInsert(list *[]ir.CFNode, index int, node ir.CFNode) {
	*list = append(*list, nil)
	copy((*list)[index+1:], (*list)[index:])
	(*list)[index] = node
}

func spliceRemove(list *[]ir.CFNode, index int) {
	*list = append((*list)[:index], (*list)[index+1:]...)
}

// --- non-block <-> block linking ----------------------------------------

func linkNonBlockToBlock(node ir.CFNode, block *ir.Block) {
	switch n := node.(type) {
	case *ir.If:
		lastThen := n.LastThenBlock()
		lastElse := n.LastElseBlock()

		if !lastThen.EndsInJump() {
			unlinkBlockSuccessors(lastThen)
			linkBlocks(lastThen, block, nil)
		}
		if !lastElse.EndsInJump() {
			unlinkBlockSuccessors(lastElse)
			linkBlocks(lastElse, block, nil)
		}
	case *ir.Loop:
		// A loop's exits are rewritten as breaks are installed, not here.
		// Re-linking every breaking block in a freshly built loop would be
		// pointless busywork. Nothing to do.
		_ = n
	default:
		panic("builder: linkNonBlockToBlock: node is not an If or Loop")
	}
}

func linkBlockToNonBlock(block *ir.Block, node ir.CFNode) {
	switch n := node.(type) {
	case *ir.If:
		unlinkBlockSuccessors(block)
		linkBlocks(block, n.FirstThenBlock(), n.FirstElseBlock())
	case *ir.Loop:
		unlinkBlockSuccessors(block)
		linkBlocks(block, n.FirstBlock(), nil)
	default:
		panic("builder: linkBlockToNonBlock: node is not an If or Loop")
	}
}

// --- block splitting ------------------------------------------------------

// splitBlockBeginning inserts a new empty block immediately before block,
// re-pointing block's predecessors at it. It does not link the two blocks
// together; the caller is about to insert something in between.
func splitBlockBeginning(block *ir.Block) *ir.Block {
	list := containingSlice(block)
	idx := indexOf(*list, block)

	newBlock := ir.NewBlock()
	newBlock.SetParent(block.Parent())
	spliceInsert(list, idx, newBlock)

	for pred := range block.Predecessors {
		unlinkBlocks(pred, block)
		linkBlocks(pred, newBlock, nil)
	}

	return newBlock
}

// splitBlockEnd inserts a new empty block immediately after block, taking
// over its successor edges.
func splitBlockEnd(block *ir.Block) *ir.Block {
	list := containingSlice(block)
	idx := indexOf(*list, block)

	newBlock := ir.NewBlock()
	newBlock.SetParent(block.Parent())
	spliceInsert(list, idx+1, newBlock)

	moveSuccessors(block, newBlock)

	return newBlock
}

// insertNonBlock splices node between the adjacent blocks before and after,
// linking both edges.
func insertNonBlock(before *ir.Block, node ir.CFNode, after *ir.Block) {
	list := containingSlice(before)
	idx := indexOf(*list, before)
	node.SetParent(before.Parent())
	spliceInsert(list, idx+1, node)

	linkBlockToNonBlock(before, node)
	linkNonBlockToBlock(node, after)
}

func insertNonBlockBeforeBlock(node ir.CFNode, block *ir.Block) {
	newBlock := splitBlockBeginning(block)
	insertNonBlock(newBlock, node, block)
}

func insertNonBlockAfterBlock(block *ir.Block, node ir.CFNode) {
	newBlock := splitBlockEnd(block)
	insertNonBlock(block, node, newBlock)
}

// --- CF-node level insertion/removal ------------------------------------

// prependInstrs merges before's instructions onto the front of block and,
// if before ended in a jump, recomputes block's successors from it.
func prependInstrs(block, before *ir.Block, hasJump bool) {
	for _, instr := range before.Instrs {
		instr.SetBlock(block)
	}
	block.Instrs = append(append([]ir.Instr{}, before.Instrs...), block.Instrs...)
	if hasJump {
		HandleJump(block)
	}
}

func appendInstrs(block, after *ir.Block, hasJump bool) {
	for _, instr := range after.Instrs {
		instr.SetBlock(block)
	}
	block.Instrs = append(block.Instrs, after.Instrs...)
	if hasJump {
		HandleJump(block)
	}
}

// InsertAfter inserts newNode immediately after node in the control-flow
// tree, mirroring nir_cf_node_insert_after.
func InsertAfter(node, newNode ir.CFNode) {
	if after, ok := newNode.(*ir.Block); ok {
		hasJump := after.EndsInJump()

		if nodeBlock, ok := node.(*ir.Block); ok {
			appendInstrs(nodeBlock, after, hasJump)
			return
		}

		list := containingSlice(node)
		idx := indexOf(*list, node)
		nextBlock := (*list)[idx+1].(*ir.Block)
		prependInstrs(nextBlock, after, hasJump)
		return
	}

	if nodeBlock, ok := node.(*ir.Block); ok {
		insertNonBlockAfterBlock(nodeBlock, newNode)
		return
	}

	list := containingSlice(node)
	idx := indexOf(*list, node)
	nextBlock := (*list)[idx+1].(*ir.Block)
	insertNonBlockBeforeBlock(newNode, nextBlock)
}

// InsertBefore inserts newNode immediately before node in the control-flow
// tree, mirroring nir_cf_node_insert_before.
func InsertBefore(node, newNode ir.CFNode) {
	if before, ok := newNode.(*ir.Block); ok {
		hasJump := before.EndsInJump()

		if nodeBlock, ok := node.(*ir.Block); ok {
			prependInstrs(nodeBlock, before, hasJump)
			return
		}

		list := containingSlice(node)
		idx := indexOf(*list, node)
		prevBlock := (*list)[idx-1].(*ir.Block)
		appendInstrs(prevBlock, before, hasJump)
		return
	}

	if nodeBlock, ok := node.(*ir.Block); ok {
		insertNonBlockBeforeBlock(newNode, nodeBlock)
		return
	}

	list := containingSlice(node)
	idx := indexOf(*list, node)
	prevBlock := (*list)[idx-1].(*ir.Block)
	insertNonBlockAfterBlock(prevBlock, newNode)
}

// InsertImplBegin inserts node at the start of impl's body.
func InsertImplBegin(impl *ir.FunctionImpl, node ir.CFNode) {
	InsertBefore(impl.Body[0], node)
}

// InsertImplEnd inserts node at the end of impl's body.
func InsertImplEnd(impl *ir.FunctionImpl, node ir.CFNode) {
	InsertAfter(impl.Body[len(impl.Body)-1], node)
}

// InsertThenBegin inserts node at the start of ifStmt's then branch.
func InsertThenBegin(ifStmt *ir.If, node ir.CFNode) { InsertBefore(ifStmt.Then[0], node) }

// InsertThenEnd inserts node at the end of ifStmt's then branch.
func InsertThenEnd(ifStmt *ir.If, node ir.CFNode) {
	InsertAfter(ifStmt.Then[len(ifStmt.Then)-1], node)
}

// InsertElseBegin inserts node at the start of ifStmt's else branch.
func InsertElseBegin(ifStmt *ir.If, node ir.CFNode) { InsertBefore(ifStmt.Else[0], node) }

// InsertElseEnd inserts node at the end of ifStmt's else branch.
func InsertElseEnd(ifStmt *ir.If, node ir.CFNode) {
	InsertAfter(ifStmt.Else[len(ifStmt.Else)-1], node)
}

// InsertLoopBegin inserts node at the start of loop's body.
func InsertLoopBegin(loop *ir.Loop, node ir.CFNode) { InsertBefore(loop.Body[0], node) }

// InsertLoopEnd inserts node at the end of loop's body.
func InsertLoopEnd(loop *ir.Loop, node ir.CFNode) {
	InsertAfter(loop.Body[len(loop.Body)-1], node)
}

// stitchBlocks merges after into before: the result keeps before's
// predecessors and after's successors.
func stitchBlocks(before, after *ir.Block) {
	moveSuccessors(after, before)
	for _, instr := range after.Instrs {
		instr.SetBlock(before)
	}
	before.Instrs = append(before.Instrs, after.Instrs...)

	list := containingSlice(after)
	idx := indexOf(*list, after)
	spliceRemove(list, idx)
}

// Remove detaches node from the control-flow tree, mirroring
// nir_cf_node_remove. Removing a Block just empties it, since blocks are
// structural padding between If/Loop nodes and can't be removed outright;
// removing an If/Loop stitches the blocks flanking it back into one.
func Remove(node ir.CFNode) {
	if block, ok := node.(*ir.Block); ok {
		block.Instrs = nil
		return
	}

	list := containingSlice(node)
	idx := indexOf(*list, node)
	beforeBlock := (*list)[idx-1].(*ir.Block)
	afterBlock := (*list)[idx+1].(*ir.Block)

	spliceRemove(list, idx)
	stitchBlocks(beforeBlock, afterBlock)
}

// --- jump handling --------------------------------------------------------

func nearestLoop(node ir.CFNode) *ir.Loop {
	for {
		if loop, ok := node.(*ir.Loop); ok {
			return loop
		}
		node = node.Parent()
	}
}

func getFunction(node ir.CFNode) *ir.FunctionImpl {
	for {
		if impl, ok := node.(*ir.FunctionImpl); ok {
			return impl
		}
		node = node.Parent()
	}
}

// nodeAfter returns the CF node structurally following node in its own
// list, climbing out through enclosing Ifs when node is the list's last
// element. It is nil when node is the last node of a FunctionImpl's body
// (control then falls through to the impl's end block) or of a Loop's body
// (control then returns to the loop's header).
func nodeAfter(node ir.CFNode) ir.CFNode {
	for {
		list := containingSlice(node)
		idx := indexOf(*list, node)
		if idx+1 < len(*list) {
			return (*list)[idx+1]
		}
		parent := node.Parent()
		if _, ok := parent.(*ir.If); ok {
			node = parent
			continue
		}
		return nil
	}
}

// HandleJump recomputes block's successor edges after a jump instruction
// has been appended to its end: a return always targets the enclosing
// function's end block; a break targets whatever structurally follows the
// nearest enclosing loop; a continue targets the nearest enclosing loop's
// first block (its header), since a continue re-enters the loop at the top
// rather than exiting it.
func HandleJump(block *ir.Block) {
	last := block.LastInstr()
	jump, ok := last.(*ir.JumpInstr)
	if !ok {
		panic("builder: HandleJump called on a block not ending in a jump")
	}

	unlinkBlockSuccessors(block)

	switch jump.JumpKind {
	case ir.JumpBreak:
		loop := nearestLoop(block)
		after := nodeAfter(loop)
		afterBlock, ok := after.(*ir.Block)
		if !ok {
			impl := getFunction(loop)
			afterBlock = impl.EndBlock
		}
		linkBlocks(block, afterBlock, nil)
	case ir.JumpContinue:
		loop := nearestLoop(block)
		linkBlocks(block, loop.FirstBlock(), nil)
	default: // JumpReturn
		impl := getFunction(block)
		linkBlocks(block, impl.EndBlock, nil)
	}
}

// RemoveJumpAndRelink removes jump and re-links its block to wherever
// control would fall through structurally; instr-level removal
// intentionally leaves successor edges alone, so the caller is responsible
// for relinking. This is a convenience on top of InstrRemove, not something
// InstrRemove calls itself.
func RemoveJumpAndRelink(jump *ir.JumpInstr) {
	block := jump.Block()
	InstrRemove(jump)
	unlinkBlockSuccessors(block)

	next := nodeAfter(block)
	switch n := next.(type) {
	case nil:
		if loop, ok := block.Parent().(*ir.Loop); ok {
			linkBlocks(block, loop.FirstBlock(), nil)
		} else {
			impl := getFunction(block)
			linkBlocks(block, impl.EndBlock, nil)
		}
	case *ir.Block:
		linkBlocks(block, n, nil)
	default:
		linkBlockToNonBlock(block, n)
	}
}

// --- instruction-level insertion/removal --------------------------------

func instrIndex(block *ir.Block, instr ir.Instr) int {
	for i, in := range block.Instrs {
		if in == instr {
			return i
		}
	}
	return -1
}

func spliceInstrInsert(block *ir.Block, index int, instr ir.Instr) {
	block.Instrs = append(block.Instrs, nil)
	copy(block.Instrs[index+1:], block.Instrs[index:])
	block.Instrs[index] = instr
}

func spliceInstrRemove(block *ir.Block, index int) {
	block.Instrs = append(block.Instrs[:index], block.Instrs[index+1:]...)
}

func bindSSADests(instr ir.Instr, block *ir.Block) {
	impl := getFunction(block)
	for _, v := range ssaDests(instr) {
		if v.Instr == nil {
			impl.BindSSADef(v, instr)
		}
	}
}

// InstrInsertBefore inserts before immediately ahead of instr in the same
// block, mirroring nir_instr_insert_before.
func InstrInsertBefore(instr, before ir.Instr) {
	block := instr.Block()
	before.SetBlock(block)
	addDefsUses(before)
	bindSSADests(before, block)

	idx := instrIndex(block, instr)
	spliceInstrInsert(block, idx, before)
}

// InstrInsertAfter inserts after immediately behind instr in the same
// block, mirroring nir_instr_insert_after.
func InstrInsertAfter(instr, after ir.Instr) {
	block := instr.Block()
	after.SetBlock(block)
	addDefsUses(after)
	bindSSADests(after, block)

	idx := instrIndex(block, instr)
	spliceInstrInsert(block, idx+1, after)
}

// InstrInsertBeforeBlock inserts before at the start of block.
func InstrInsertBeforeBlock(block *ir.Block, before ir.Instr) {
	before.SetBlock(block)
	addDefsUses(before)
	bindSSADests(before, block)
	spliceInstrInsert(block, 0, before)
}

// InstrInsertAfterBlock inserts after at the end of block.
func InstrInsertAfterBlock(block *ir.Block, after ir.Instr) {
	after.SetBlock(block)
	addDefsUses(after)
	bindSSADests(after, block)
	block.Instrs = append(block.Instrs, after)
}

// InstrInsertBeforeCF inserts before at the start of the basic block that
// begins node (node itself if it is a Block, else the block after it).
func InstrInsertBeforeCF(node ir.CFNode, before ir.Instr) {
	if block, ok := node.(*ir.Block); ok {
		InstrInsertBeforeBlock(block, before)
		return
	}
	next := nodeAfter(node)
	InstrInsertBeforeBlock(next.(*ir.Block), before)
}

// InstrInsertAfterCF inserts after at the end of the basic block that ends
// node (node itself if it is a Block, else the block before it).
func InstrInsertAfterCF(node ir.CFNode, after ir.Instr) {
	if block, ok := node.(*ir.Block); ok {
		InstrInsertAfterBlock(block, after)
		return
	}
	list := containingSlice(node)
	idx := indexOf(*list, node)
	prevBlock := (*list)[idx-1].(*ir.Block)
	InstrInsertAfterBlock(prevBlock, after)
}

// InstrInsertBeforeCFList inserts before at the start of the first node of
// list.
func InstrInsertBeforeCFList(list []ir.CFNode, before ir.Instr) {
	InstrInsertBeforeCF(list[0], before)
}

// InstrInsertAfterCFList inserts after at the end of the last node of
// list.
func InstrInsertAfterCFList(list []ir.CFNode, after ir.Instr) {
	InstrInsertAfterCF(list[len(list)-1], after)
}

// InstrRemove detaches instr from its block's instruction list and clears
// its register use/def bookkeeping. It does not touch successor edges even
// when instr is a jump; see RemoveJumpAndRelink.
func InstrRemove(instr ir.Instr) {
	removeDefsUses(instr)
	block := instr.Block()
	idx := instrIndex(block, instr)
	spliceInstrRemove(block, idx)
}
