package store

import "errors"

// ErrAlreadyExists 指纹唯一约束冲突时返回；调用方据此区分真正的存储故障与竞态重复
// ErrAlreadyExists is returned on a fingerprint unique-constraint violation so
// callers can distinguish a genuine store failure from a raced duplicate.
var ErrAlreadyExists = errors.New("store: fingerprint already exists")
