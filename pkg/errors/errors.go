package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrSlotInUse 节次仍被课表条目引用，不可删除
// 由 Repository 在删除事务内重新核对引用数后返回，避免"先查后删"竞态
var ErrSlotInUse = errors.New("节次仍被课表引用，不可删除")
