package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := Conflict(14002, "该时段已被预约")
	wrapped := fmt.Errorf("book slot: %w", base)

	if KindOf(wrapped) != KindConflict {
		t.Errorf("期望 conflict，实际=%q", KindOf(wrapped))
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("errors.Is 应穿透包装")
	}
	appErr, ok := As(wrapped)
	if !ok || appErr.Code != 14002 {
		t.Errorf("期望提取 code=14002，实际=%v", appErr)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if KindOf(stderrors.New("boom")) != "" {
		t.Error("普通错误不应有分类")
	}
	if KindOf(nil) != "" {
		t.Error("nil 不应有分类")
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	a := NotFound(1, "x")
	b := NotFound(1, "x")
	if stderrors.Is(a, b) {
		t.Error("不同哨兵不应相等")
	}
	if !stderrors.Is(ErrOptimisticLock, ErrOptimisticLock) {
		t.Error("同一哨兵应相等")
	}
}
