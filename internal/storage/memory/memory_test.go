// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

func TestServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	svc := model.NewService("my-service")
	if err := s.Services().Put(ctx, svc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Services().Get(ctx, svc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "my-service" {
		t.Errorf("Get returned Name %q, want %q", got.Name, "my-service")
	}

	byName, err := s.Services().GetByName(ctx, "my-service")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if byName.ID != svc.ID {
		t.Errorf("GetByName returned id %v, want %v", byName.ID, svc.ID)
	}

	if _, err := s.Services().GetByName(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName(missing) = %v, want ErrNotFound", err)
	}

	if err := s.Services().Delete(ctx, svc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Services().Get(ctx, svc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestExecutionListFilterByStatus(t *testing.T) {
	ctx := context.Background()
	s := New()

	serviceID := uuid.New()
	running := model.NewExecution(serviceID, "install", nil)
	running.Status = model.ExecutionInProgress
	succeeded := model.NewExecution(serviceID, "install", nil)
	succeeded.Status = model.ExecutionSucceeded

	if err := s.Executions().Put(ctx, running); err != nil {
		t.Fatal(err)
	}
	if err := s.Executions().Put(ctx, succeeded); err != nil {
		t.Fatal(err)
	}

	// EntityFilter values must match the stored candidate's concrete
	// type (any == any compares dynamic type and value); passing a raw
	// int here would silently match nothing.
	out, err := s.Executions().List(ctx, model.EntityFilter{"status": model.ExecutionInProgress})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ID != running.ID {
		t.Errorf("List(status=Running) = %v, want exactly %v", out, running.ID)
	}

	out, err = s.Executions().List(ctx, model.EntityFilter{"service_id": serviceID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("List(service_id) = %d results, want 2", len(out))
	}
}

func TestResourceStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	rs := NewResourceStorage()

	dir := t.TempDir()
	src := filepath.Join(dir, "payload.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rs.Upload(ctx, model.ResourcePlugin, "entry-1", src); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	data, err := rs.Read(ctx, model.ResourcePlugin, "entry-1", "payload.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Read = %q, want %q", data, "hello")
	}

	dst := filepath.Join(dir, "downloaded", "out.txt")
	if err := rs.Download(ctx, model.ResourcePlugin, "entry-1", dst); err != nil {
		t.Fatalf("Download: %v", err)
	}
	downloaded, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(downloaded) != "hello" {
		t.Errorf("downloaded content = %q, want %q", downloaded, "hello")
	}

	if err := rs.Delete(ctx, model.ResourcePlugin, "entry-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := rs.Read(ctx, model.ResourcePlugin, "entry-1", "payload.txt"); err == nil {
		t.Error("expected Read after Delete to fail")
	}
}
