// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package opctx

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/ariaorch/core/internal/diagnostics"
	"github.com/ariaorch/core/internal/model"
)

// Envelope is the wire shape for handing an OperationContext to a
// process-pool or remote worker. The context class name lets the worker
// pick which concrete reconstruction path to take without a type
// switch over the wire.
type Envelope struct {
	ContextClass string      `json:"context_cls"`
	Context      WireContext `json:"context"`
}

// WireContext is the "context" object a worker reconstructs an
// OperationContext from. ActorID/TaskID/ExecutionID travel as strings
// (uuid.UUID's natural textual form) since every id here is a
// uuid.UUID.
type WireContext struct {
	Name            string          `json:"name"`
	ExecutionID     string          `json:"deployment_id"`
	TaskID          string          `json:"task_id"`
	ActorID         string          `json:"actor_id"`
	ModelStorage    *StorageRef     `json:"model_storage"`
	ResourceStorage *StorageRef     `json:"resource_storage"`
	Inputs          json.RawMessage `json:"inputs,omitempty"`
}

// StorageRef names a storage backend's class plus the kwargs needed to
// reconnect to it from a worker process: the connection string travels,
// never the live connection.
type StorageRef struct {
	APIClass  string            `json:"api_cls"`
	APIKwargs map[string]string `json:"api_kwargs"`
}

// Encode builds the wire envelope for ctx, failing fast if either
// storage backend cannot describe itself as a StorageRef (i.e. isn't
// model.Serializable) — the in-memory backends are the motivating case.
func Encode(ctx *OperationContext) (*Envelope, error) {
	msRef, err := storageRef(ctx.ModelStorage)
	if err != nil {
		return nil, err
	}
	rsRef, err := resourceStorageRef(ctx.ResourceStorage)
	if err != nil {
		return nil, err
	}

	class := "NodeOperationContext"
	if ctx.ActorKind == model.ActorRelationship {
		class = "RelationshipOperationContext"
	}

	return &Envelope{
		ContextClass: class,
		Context: WireContext{
			Name:            ctx.Name,
			ExecutionID:     ctx.ExecutionID.String(),
			TaskID:          ctx.TaskID.String(),
			ActorID:         ctx.ActorID.String(),
			ModelStorage:    msRef,
			ResourceStorage: rsRef,
		},
	}, nil
}

func storageRef(ms model.ModelStorage) (*StorageRef, error) {
	if ms == nil {
		return nil, nil
	}
	s, ok := ms.(model.Serializable)
	if !ok {
		return nil, diagnostics.New(diagnostics.KindExecutorError, "model storage backend cannot be serialized for out-of-process execution", "an in-memory ModelStorage cannot be combined with the process-pool or remote executor")
	}
	cls, kwargs := s.SerializeConfig()
	return &StorageRef{APIClass: cls, APIKwargs: kwargs}, nil
}

func resourceStorageRef(rs model.ResourceStorage) (*StorageRef, error) {
	if rs == nil {
		return nil, nil
	}
	s, ok := rs.(model.Serializable)
	if !ok {
		return nil, diagnostics.New(diagnostics.KindExecutorError, "resource storage backend cannot be serialized for out-of-process execution", "an in-memory ResourceStorage cannot be combined with the process-pool or remote executor")
	}
	cls, kwargs := s.SerializeConfig()
	return &StorageRef{APIClass: cls, APIKwargs: kwargs}, nil
}

// MarshalValue encodes a typed cty.Value input for transport over the
// same envelope, using cty's own JSON value representation (the value
// only; the type is not written, so a decoder has to supply it) rather
// than msgpack; EncodeException below is the separate msgpack-encoded
// exception channel.
func MarshalValue(v cty.Value) (json.RawMessage, error) {
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, fmt.Errorf("marshaling operation input: %w", err)
	}
	return b, nil
}

// ExceptionEnvelope is what a process-pool child writes back on
// failure, msgpack-encoded, over the shared result channel the parent
// reads from.
type ExceptionEnvelope struct {
	TypeName string `msgpack:"type_name"`
	Message  string `msgpack:"message"`
}

// ErrDeserializeFailed is returned by the process-pool executor's
// parent side when an ExceptionEnvelope fails to decode.
var ErrDeserializeFailed = fmt.Errorf("could not de-serialize exception")

// EncodeException msgpack-encodes an exception for the worker-to-parent
// channel.
func EncodeException(typeName, message string) ([]byte, error) {
	return msgpack.Marshal(&ExceptionEnvelope{TypeName: typeName, Message: message})
}

// DecodeException reverses EncodeException; a decode failure is the
// caller's cue to synthesize ErrDeserializeFailed instead of the real
// exception.
func DecodeException(b []byte) (*ExceptionEnvelope, error) {
	var env ExceptionEnvelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserializeFailed, err)
	}
	return &env, nil
}
