package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ── 数据库约束兜底 ──

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgExclusionViolation  = "23P01"
)

// 约束名，与迁移脚本保持一致
const (
	ConstraintTitleDate     = "uq_session_groups_title_date"
	ConstraintRestriction   = "uq_session_groups_restriction"
	ConstraintBookedOverlap = "ex_booked_slots_no_overlap"
)

var (
	ErrUniqueViolation     = errors.New("违反唯一约束")
	ErrExclusionViolation  = errors.New("违反排他约束")
	ErrForeignKeyViolation = errors.New("违反外键约束")
)

// ConstraintError 数据库约束冲突，Unwrap 为上面三类哨兵之一
type ConstraintError struct {
	Kind       error
	Constraint string
	cause      error
}

func (e *ConstraintError) Error() string {
	return e.Kind.Error() + ": " + e.Constraint
}

func (e *ConstraintError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

// classify 将 PostgreSQL 约束错误转换为 ConstraintError，其他错误原样返回
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	var kind error
	switch pgErr.Code {
	case pgUniqueViolation:
		kind = ErrUniqueViolation
	case pgExclusionViolation:
		kind = ErrExclusionViolation
	case pgForeignKeyViolation:
		kind = ErrForeignKeyViolation
	default:
		return err
	}
	return &ConstraintError{Kind: kind, Constraint: pgErr.ConstraintName, cause: err}
}

// IsConstraint 错误是否为指定约束的冲突
func IsConstraint(err error, constraint string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == constraint
}
