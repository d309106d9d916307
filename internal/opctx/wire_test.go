// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package opctx

import (
	"testing"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/storage/memory"
)

// fakeSerializableModelStorage satisfies both model.ModelStorage (via the
// embedded nil interface, never actually invoked by Encode) and
// model.Serializable, to exercise Encode's success path without a live
// database.
type fakeSerializableModelStorage struct {
	model.ModelStorage
}

func (f *fakeSerializableModelStorage) SerializeConfig() (string, map[string]string) {
	return "fake.ModelStorage", map[string]string{"dsn": "fake://model"}
}

type fakeSerializableResourceStorage struct {
	model.ResourceStorage
}

func (f *fakeSerializableResourceStorage) SerializeConfig() (string, map[string]string) {
	return "fake.ResourceStorage", map[string]string{"dsn": "fake://resource"}
}

func TestEncodeNodeContextSucceedsWithSerializableStorage(t *testing.T) {
	n := model.NewNode("compute_tpl", "Compute")
	ctx := NodeOperationContext("Standard.create", uuid.New(), uuid.New(), n, &fakeSerializableModelStorage{}, &fakeSerializableResourceStorage{})

	env, err := Encode(ctx)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if env.ContextClass != "NodeOperationContext" {
		t.Errorf("ContextClass = %q, want %q", env.ContextClass, "NodeOperationContext")
	}
	if env.Context.ModelStorage.APIClass != "fake.ModelStorage" {
		t.Errorf("ModelStorage.APIClass = %q, want %q", env.Context.ModelStorage.APIClass, "fake.ModelStorage")
	}
	if env.Context.ActorID != n.ID.String() {
		t.Errorf("ActorID = %q, want %q", env.Context.ActorID, n.ID.String())
	}
}

func TestEncodeRelationshipContextSetsClass(t *testing.T) {
	r := model.NewRelationship("Uses", uuid.New(), uuid.New())
	ctx := RelationshipOperationContext("Standard.link", uuid.New(), uuid.New(), r, &fakeSerializableModelStorage{}, &fakeSerializableResourceStorage{})

	env, err := Encode(ctx)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if env.ContextClass != "RelationshipOperationContext" {
		t.Errorf("ContextClass = %q, want %q", env.ContextClass, "RelationshipOperationContext")
	}
}

func TestEncodeRejectsNonSerializableModelStorage(t *testing.T) {
	n := model.NewNode("compute_tpl", "Compute")
	ctx := NodeOperationContext("Standard.create", uuid.New(), uuid.New(), n, memory.New(), &fakeSerializableResourceStorage{})

	if _, err := Encode(ctx); err == nil {
		t.Fatal("expected Encode to reject an in-memory (non-Serializable) model storage backend")
	}
}

func TestEncodeRejectsNonSerializableResourceStorage(t *testing.T) {
	n := model.NewNode("compute_tpl", "Compute")
	ctx := NodeOperationContext("Standard.create", uuid.New(), uuid.New(), n, &fakeSerializableModelStorage{}, memory.NewResourceStorage())

	if _, err := Encode(ctx); err == nil {
		t.Fatal("expected Encode to reject an in-memory (non-Serializable) resource storage backend")
	}
}

func TestEncodeExceptionRoundTrip(t *testing.T) {
	b, err := EncodeException("ValueError", "boom")
	if err != nil {
		t.Fatalf("EncodeException: %v", err)
	}
	env, err := DecodeException(b)
	if err != nil {
		t.Fatalf("DecodeException: %v", err)
	}
	if env.TypeName != "ValueError" || env.Message != "boom" {
		t.Errorf("decoded = %+v, want {ValueError boom}", env)
	}
}

func TestDecodeExceptionMalformedReturnsDeserializeFailed(t *testing.T) {
	// 0xc1 is msgpack's permanently reserved "never used" byte, guaranteed
	// to fail decoding regardless of library leniency elsewhere.
	if _, err := DecodeException([]byte{0xc1}); err == nil {
		t.Fatal("expected DecodeException to fail on malformed input")
	}
}
