package cs_ast

// Syntax kinds, one per statement and expression node type
type Kind uint8

const (
	KindNone Kind = iota

	// Statements
	KindSBlock
	KindSEmpty
	KindSLocal
	KindSLocalFunction
	KindSExpr
	KindSIf
	KindSWhile
	KindSDoWhile
	KindSFor
	KindSForEach
	KindSBreak
	KindSContinue
	KindSReturn
	KindSThrow
	KindSYieldReturn
	KindSYieldBreak
	KindSTry
	KindSUsing
	KindSSwitch

	// Expressions
	KindENull
	KindEBoolean
	KindENumber
	KindEString
	KindEChar
	KindEInterpolated
	KindEIdentifier
	KindEThis
	KindEBase
	KindETypeRef
	KindEMember
	KindEIndex
	KindECall
	KindENew
	KindEArray
	KindEUnary
	KindEBinary
	KindEConditional
	KindEIs
	KindEAs
	KindECast
	KindELambda
	KindESwitch
	KindETuple
	KindEAwait
	KindEDefault
	KindENameof
)

var kindNames = [...]string{
	KindNone:           "none",
	KindSBlock:         "SBlock",
	KindSEmpty:         "SEmpty",
	KindSLocal:         "SLocal",
	KindSLocalFunction: "SLocalFunction",
	KindSExpr:          "SExpr",
	KindSIf:            "SIf",
	KindSWhile:         "SWhile",
	KindSDoWhile:       "SDoWhile",
	KindSFor:           "SFor",
	KindSForEach:       "SForEach",
	KindSBreak:         "SBreak",
	KindSContinue:      "SContinue",
	KindSReturn:        "SReturn",
	KindSThrow:         "SThrow",
	KindSYieldReturn:   "SYieldReturn",
	KindSYieldBreak:    "SYieldBreak",
	KindSTry:           "STry",
	KindSUsing:         "SUsing",
	KindSSwitch:        "SSwitch",
	KindENull:          "ENull",
	KindEBoolean:       "EBoolean",
	KindENumber:        "ENumber",
	KindEString:        "EString",
	KindEChar:          "EChar",
	KindEInterpolated:  "EInterpolated",
	KindEIdentifier:    "EIdentifier",
	KindEThis:          "EThis",
	KindEBase:          "EBase",
	KindETypeRef:       "ETypeRef",
	KindEMember:        "EMember",
	KindEIndex:         "EIndex",
	KindECall:          "ECall",
	KindENew:           "ENew",
	KindEArray:         "EArray",
	KindEUnary:         "EUnary",
	KindEBinary:        "EBinary",
	KindEConditional:   "EConditional",
	KindEIs:            "EIs",
	KindEAs:            "EAs",
	KindECast:          "ECast",
	KindELambda:        "ELambda",
	KindESwitch:        "ESwitch",
	KindETuple:         "ETuple",
	KindEAwait:         "EAwait",
	KindEDefault:       "EDefault",
	KindENameof:        "ENameof",
}

func (kind Kind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	return "unknown"
}

func (kind Kind) IsStmt() bool {
	return kind >= KindSBlock && kind <= KindSSwitch
}

func (*SBlock) Kind() Kind         { return KindSBlock }
func (*SEmpty) Kind() Kind         { return KindSEmpty }
func (*SLocal) Kind() Kind         { return KindSLocal }
func (*SLocalFunction) Kind() Kind { return KindSLocalFunction }
func (*SExpr) Kind() Kind          { return KindSExpr }
func (*SIf) Kind() Kind            { return KindSIf }
func (*SWhile) Kind() Kind         { return KindSWhile }
func (*SDoWhile) Kind() Kind       { return KindSDoWhile }
func (*SFor) Kind() Kind           { return KindSFor }
func (*SForEach) Kind() Kind       { return KindSForEach }
func (*SBreak) Kind() Kind         { return KindSBreak }
func (*SContinue) Kind() Kind      { return KindSContinue }
func (*SReturn) Kind() Kind        { return KindSReturn }
func (*SThrow) Kind() Kind         { return KindSThrow }
func (*SYieldReturn) Kind() Kind   { return KindSYieldReturn }
func (*SYieldBreak) Kind() Kind    { return KindSYieldBreak }
func (*STry) Kind() Kind           { return KindSTry }
func (*SUsing) Kind() Kind         { return KindSUsing }
func (*SSwitch) Kind() Kind        { return KindSSwitch }
func (*ENull) Kind() Kind          { return KindENull }
func (*EBoolean) Kind() Kind       { return KindEBoolean }
func (*ENumber) Kind() Kind        { return KindENumber }
func (*EString) Kind() Kind        { return KindEString }
func (*EChar) Kind() Kind          { return KindEChar }
func (*EInterpolated) Kind() Kind  { return KindEInterpolated }
func (*EIdentifier) Kind() Kind    { return KindEIdentifier }
func (*EThis) Kind() Kind          { return KindEThis }
func (*EBase) Kind() Kind          { return KindEBase }
func (*ETypeRef) Kind() Kind       { return KindETypeRef }
func (*EMember) Kind() Kind        { return KindEMember }
func (*EIndex) Kind() Kind         { return KindEIndex }
func (*ECall) Kind() Kind          { return KindECall }
func (*ENew) Kind() Kind           { return KindENew }
func (*EArray) Kind() Kind         { return KindEArray }
func (*EUnary) Kind() Kind         { return KindEUnary }
func (*EBinary) Kind() Kind        { return KindEBinary }
func (*EConditional) Kind() Kind   { return KindEConditional }
func (*EIs) Kind() Kind            { return KindEIs }
func (*EAs) Kind() Kind            { return KindEAs }
func (*ECast) Kind() Kind          { return KindECast }
func (*ELambda) Kind() Kind        { return KindELambda }
func (*ESwitch) Kind() Kind        { return KindESwitch }
func (*ETuple) Kind() Kind         { return KindETuple }
func (*EAwait) Kind() Kind         { return KindEAwait }
func (*EDefault) Kind() Kind       { return KindEDefault }
func (*ENameof) Kind() Kind        { return KindENameof }
