package vm

// Op is a one-byte instruction opcode.
type Op byte

// Instruction set (section 4.3). OpModulo, OpGetListLength, OpDeleteList
// and OpDuplicate are not in spec.md's table; they back the supplemented features of
// SPEC_FULL.md section C (modulo, list length, list element deletion,
// stack duplication) recovered from original_source/.
const (
	OpConstant Op = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpEqual
	OpGreater
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpNot
	OpNegate
	OpPrintln
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpLoop
	OpBuildList
	OpIndexList
	OpStoreList
	OpGetListLength
	OpDeleteList
	OpBuildRange
	OpCall
	OpReturn
	OpDuplicate
)

var opNames = [...]string{
	OpConstant:      "CONSTANT",
	OpNil:           "NIL",
	OpTrue:          "TRUE",
	OpFalse:         "FALSE",
	OpPop:           "POP",
	OpGetLocal:      "GET_LOCAL",
	OpSetLocal:      "SET_LOCAL",
	OpGetGlobal:     "GET_GLOBAL",
	OpDefineGlobal:  "DEFINE_GLOBAL",
	OpSetGlobal:     "SET_GLOBAL",
	OpEqual:         "EQUAL",
	OpGreater:       "GREATER",
	OpLess:          "LESS",
	OpLessEqual:     "LESS_EQUAL",
	OpAdd:           "ADD",
	OpSubtract:      "SUBTRACT",
	OpMultiply:      "MULTIPLY",
	OpDivide:        "DIVIDE",
	OpModulo:        "MODULO",
	OpNot:           "NOT",
	OpNegate:        "NEGATE",
	OpPrintln:       "PRINTLN",
	OpJump:          "JUMP",
	OpJumpIfFalse:   "JUMP_IF_FALSE",
	OpJumpIfTrue:    "JUMP_IF_TRUE",
	OpLoop:          "LOOP",
	OpBuildList:     "BUILD_LIST",
	OpIndexList:     "INDEX_LIST",
	OpStoreList:     "STORE_LIST",
	OpGetListLength: "GET_LIST_LENGTH",
	OpDeleteList:    "DELETE_LIST",
	OpBuildRange:    "BUILD_RANGE",
	OpCall:          "CALL",
	OpReturn:        "RETURN",
	OpDuplicate:     "DUPLICATE",
}

// String returns the mnemonic used by the disassembler and trace output.
func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}
