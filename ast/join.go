package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	case JoinCross:
		return "cross"
	default:
		return "unknown"
	}
}

type JoinClause struct {
	JoinType JoinType
	Item     FromItem
	On       Expr
}

func (j *JoinClause) Type() NodeType         { return NodeJoin }
func (j *JoinClause) Accept(v Visitor) error { return v.VisitJoinClause(j) }

func (j *JoinClause) Fingerprint() uint64 {
	fp := mix("join:" + j.JoinType.String())
	if j.Item != nil {
		fp = utils.Mix64(fp, j.Item.Fingerprint())
	}
	return utils.Mix64(fp, fingerprintOf(j.On))
}

func (j *JoinClause) Clone() *JoinClause {
	c := &JoinClause{JoinType: j.JoinType, On: cloneExpr(j.On)}
	if j.Item != nil {
		c.Item = j.Item.CloneFrom()
	}
	return c
}
