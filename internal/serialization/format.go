// Package serialization implements the .raug snapshot container.
//
// A .raug file is a single serialized record:
//
//	[4 bytes: Magic "RAUG"]
//	[4 bytes: Version (uint32 LE)]
//	[4 bytes: Flags (uint32 LE)]
//	[8 bytes: Header Size (uint64 LE)]
//	[Header: JSON metadata]
//	[Tensor data: raw little-endian bytes, 64-byte aligned]
//
// The JSON header lists every tensor (name, dtype, shape, offset, size), a
// SHA-256 checksum of the data section, free-form string metadata, and an
// optional checkpoint block carrying training state (epoch, loss, optimizer
// identity). Model parameters are stored under their state dict names;
// optimizer bookkeeping is stored under an "optimizer." key prefix.
package serialization

import (
	"time"

	"github.com/peuBouzon/raug/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "RAUG"
	FormatVersion   = 1
	HeaderAlignment = 64 // tensor data alignment in bytes
	MaxHeaderSize   = 100 * 1024 * 1024
)

// Flags for the .raug format.
const (
	FlagCompressed   uint32 = 1 << 0 // reserved
	FlagHasOptimizer uint32 = 1 << 1 // optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // custom metadata included
)

// OptimizerPrefix namespaces optimizer bookkeeping within the combined
// tensor table, separating it from model parameters.
const OptimizerPrefix = "optimizer."

// Header is the JSON metadata block of a .raug file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	RaugVersion   string            `json:"raug_version"`
	SnapshotID    string            `json:"snapshot_id"` // UUID assigned at write time
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Checksum      string            `json:"checksum"` // SHA-256 of the data section, hex
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta carries the training state of a snapshot: the epoch and
// loss at save time plus the identity of the optimizer whose bookkeeping is
// embedded in the tensor table.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`
	Epoch           int            `json:"epoch"`
	Loss            float64        `json:"loss"`
	OptimizerType   string         `json:"optimizer_type"`
	OptimizerConfig map[string]any `json:"optimizer_config"`
}

// TensorMeta describes one tensor payload in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of the data section
	Size   int64  `json:"size"`
}

// dtype mapping uses tensor.DataType's canonical names directly.
func dtypeToString(dt tensor.DataType) string {
	return dt.String()
}

func stringToDtype(s string) (tensor.DataType, bool) {
	return tensor.ParseDataType(s)
}
