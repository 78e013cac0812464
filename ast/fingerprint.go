package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

func mix(tag string, parts ...uint64) uint64 {
	fp := utils.U64(tag)
	for _, p := range parts {
		fp = utils.Mix64(fp, p)
	}
	return fp
}

func fingerprintOf(n Node) uint64 {
	if n == nil {
		return 0
	}
	return n.Fingerprint()
}

func fingerprintExprs(tag string, exprs []Expr) uint64 {
	fp := utils.U64(tag)
	for _, e := range exprs {
		fp = utils.Mix64(fp, fingerprintOf(e))
	}
	return fp
}

func fingerprintSelect(s *SelectStmt) uint64 {
	if s == nil {
		return 0
	}
	return s.Fingerprint()
}

func fingerprintBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func cloneExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return e.Clone()
}

func cloneExprs(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = cloneExpr(e)
	}
	return out
}

func cloneSelect(s *SelectStmt) *SelectStmt {
	if s == nil {
		return nil
	}
	return s.CloneStatement().(*SelectStmt)
}
