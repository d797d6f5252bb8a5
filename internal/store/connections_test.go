package store

import (
	"errors"
	"testing"
)

func TestConnectSymmetric(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("a", 0.5))
	db.Put(testKernel("b", 0.5))

	if err := db.Connect("a", "b", 0.8, "related"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	aIDs, _ := db.ConnectedIDs("a")
	bIDs, _ := db.ConnectedIDs("b")
	if len(aIDs) != 1 || aIDs[0] != "b" {
		t.Errorf("a neighbors = %v, want [b]", aIDs)
	}
	if len(bIDs) != 1 || bIDs[0] != "a" {
		t.Errorf("b neighbors = %v, want [a]", bIDs)
	}
}

func TestConnectOverwrites(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("a", 0.5))
	db.Put(testKernel("b", 0.5))

	db.Connect("a", "b", 0.3, "related")
	if err := db.Connect("a", "b", 0.9, "similar"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}

	// Still exactly one edge per direction, with the new strength.
	edges, _ := db.EdgeCount()
	if edges != 2 {
		t.Errorf("edge count = %d, want 2", edges)
	}
	conns, _ := db.Connected("a", 0)
	if len(conns) != 1 {
		t.Fatalf("len = %d, want 1", len(conns))
	}
	if conns[0].Strength != 0.9 || conns[0].Type != "similar" {
		t.Errorf("edge = %+v, want strength 0.9 type similar", conns[0])
	}
}

func TestConnectUnknownKernel(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("a", 0.5))

	err := db.Connect("a", "ghost", 0.5, "related")
	if !errors.Is(err, ErrUnknownKernel) {
		t.Fatalf("err = %v, want ErrUnknownKernel", err)
	}

	// Nothing half-written.
	edges, _ := db.EdgeCount()
	if edges != 0 {
		t.Errorf("edge count = %d, want 0", edges)
	}
}

func TestConnectRejectsSelfAndBadStrength(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("a", 0.5))
	db.Put(testKernel("b", 0.5))

	if err := db.Connect("a", "a", 0.5, ""); err == nil {
		t.Error("self-edge should fail")
	}
	if err := db.Connect("a", "b", 1.5, ""); err == nil {
		t.Error("strength above 1 should fail")
	}
	if err := db.Connect("a", "b", -0.1, ""); err == nil {
		t.Error("negative strength should fail")
	}
}

func TestConnectedFilterAndOrder(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("hub", 0.5))
	db.Put(testKernel("strong", 0.5))
	db.Put(testKernel("weak", 0.5))

	db.Connect("hub", "weak", 0.2, "related")
	db.Connect("hub", "strong", 0.9, "related")

	all, err := db.Connected("hub", 0)
	if err != nil {
		t.Fatalf("Connected: %v", err)
	}
	if len(all) != 2 || all[0].Kernel.ID != "strong" {
		t.Errorf("order = %v, want strongest first", all)
	}

	filtered, _ := db.Connected("hub", 0.5)
	if len(filtered) != 1 || filtered[0].Kernel.ID != "strong" {
		t.Errorf("filtered = %v, want [strong]", filtered)
	}
}

func TestConnectedUnknownKernel(t *testing.T) {
	db := testDB(t)

	_, err := db.Connected("ghost", 0)
	if !errors.Is(err, ErrUnknownKernel) {
		t.Fatalf("err = %v, want ErrUnknownKernel", err)
	}
}

func TestConnectDefaultType(t *testing.T) {
	db := testDB(t)

	db.Put(testKernel("a", 0.5))
	db.Put(testKernel("b", 0.5))
	db.Connect("a", "b", 0.5, "")

	conns, _ := db.Connected("a", 0)
	if conns[0].Type != "related" {
		t.Errorf("type = %q, want related", conns[0].Type)
	}
}
