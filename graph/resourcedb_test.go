// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import "testing"

func TestCreateBufferDuplicateName(t *testing.T) {
	db := NewResourceDatabase()
	if err := db.CreateBuffer("b", BufferInfo{Size: 64}); err != nil {
		t.Fatalf("first CreateBuffer: %v", err)
	}
	if err := db.CreateBuffer("b", BufferInfo{Size: 128}); err != ErrDuplicateName {
		t.Fatalf("duplicate CreateBuffer: have %v, want ErrDuplicateName", err)
	}
}

func TestScratchBufferSharesBufferNamespace(t *testing.T) {
	db := NewResourceDatabase()
	if err := db.CreateBuffer("shared", BufferInfo{Size: 64}); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := db.CreateScratchBuffer("shared", BufferInfo{Size: 64}); err != ErrDuplicateName {
		t.Fatalf("CreateScratchBuffer over existing buffer name: have %v, want ErrDuplicateName", err)
	}
}

func TestRegisterConsumerUnknownName(t *testing.T) {
	db := NewResourceDatabase()
	view := BufferView{Buffer: "missing", Offset: 0, Size: 16, Access: AccessShaderRead}
	if err := db.registerBufferConsumer("missing", 0, view); err != ErrUnknownName {
		t.Fatalf("registerBufferConsumer on unknown name: have %v, want ErrUnknownName", err)
	}
}

func TestRegisterConsumerAppendsUsage(t *testing.T) {
	db := NewResourceDatabase()
	if err := db.CreateBuffer("b", BufferInfo{Size: 64}); err != nil {
		t.Fatal(err)
	}
	view := BufferView{Buffer: "b", Offset: 0, Size: 16, Access: AccessShaderRead}
	if err := db.registerBufferConsumer("b", 3, view); err != nil {
		t.Fatal(err)
	}
	if got := len(db.buffers[0].Usages); got != 1 {
		t.Fatalf("usages recorded: have %d, want 1", got)
	}
	if db.buffers[0].Usages[0].ConsumerNodeID != 3 {
		t.Fatalf("consumer node id: have %d, want 3", db.buffers[0].Usages[0].ConsumerNodeID)
	}
}
