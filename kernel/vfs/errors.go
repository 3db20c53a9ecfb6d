package vfs

import "ferrite/kernel"

// The error kinds every layer above the block cache surfaces, expressed as
// the single *kernel.Error type this codebase uses everywhere (spec §7).
var (
	ErrNotFound              = &kernel.Error{Module: "vfs", Message: "no such file or directory"}
	ErrNotImplemented        = &kernel.Error{Module: "vfs", Message: "operation not supported by this node type"}
	ErrInvalidArgument       = &kernel.Error{Module: "vfs", Message: "invalid argument"}
	ErrIsDir                 = &kernel.Error{Module: "vfs", Message: "is a directory"}
	ErrIsFile                = &kernel.Error{Module: "vfs", Message: "is a file"}
	ErrAlreadyExists         = &kernel.Error{Module: "vfs", Message: "already exists"}
	ErrPrematureEndOfInput   = &kernel.Error{Module: "vfs", Message: "premature end of input"}
	ErrInvalidMagicNumber    = &kernel.Error{Module: "vfs", Message: "invalid magic number"}
	ErrDecodeError           = &kernel.Error{Module: "vfs", Message: "decode error"}
	ErrFrameAllocationFailed = &kernel.Error{Module: "vfs", Message: "physical memory exhausted"}
	ErrIoError               = &kernel.Error{Module: "vfs", Message: "underlying device error"}
)
