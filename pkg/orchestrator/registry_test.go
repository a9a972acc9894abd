package orchestrator

import "testing"

func TestRegistryRegisterGetRemove(t *testing.T) {
	r := NewRegistry()
	c := newFakeClient("pairing-s1")

	if _, ok := r.Get("s1"); ok {
		t.Fatal("expected empty registry")
	}

	r.Register("s1", c)
	got, ok := r.Get("s1")
	if !ok || got != c {
		t.Fatal("expected registered client back")
	}

	r.Remove("s1")
	if _, ok := r.Get("s1"); ok {
		t.Fatal("expected entry removed")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}

func TestRegistryPairingCode(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", newFakeClient("pairing-s1"))

	if _, ok := r.PairingCode("s1"); ok {
		t.Fatal("expected no pairing code yet")
	}

	r.SetPairingCode("s1", "ABCD-1234")
	code, ok := r.PairingCode("s1")
	if !ok || code != "ABCD-1234" {
		t.Fatalf("expected cached code, got '%s'", code)
	}

	// Setting a code for an unknown session must not create an entry.
	r.SetPairingCode("ghost", "XXXX")
	if _, ok := r.Get("ghost"); ok {
		t.Fatal("expected no entry for unknown session")
	}
}

func TestRegistryRekey(t *testing.T) {
	r := NewRegistry()
	c := newFakeClient("pairing-s1")
	r.Register("s1", c)
	r.SetPairingCode("s1", "ABCD-1234")

	if !r.Rekey("s1", "dev1") {
		t.Fatal("expected rekey to succeed")
	}

	if _, ok := r.Get("s1"); ok {
		t.Fatal("expected old key gone")
	}
	got, ok := r.Get("dev1")
	if !ok || got != c {
		t.Fatal("expected client under new key")
	}
	if _, ok := r.PairingCode("dev1"); ok {
		t.Fatal("expected pairing code dropped on rekey")
	}

	if r.Rekey("missing", "x") {
		t.Fatal("expected rekey of unknown key to fail")
	}
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	r.Register("a", newFakeClient("pairing-a"))
	r.Register("b", newFakeClient("pairing-b"))

	clients := r.Clear()
	if len(clients) != 2 {
		t.Fatalf("expected 2 removed clients, got %d", len(clients))
	}
	if r.Len() != 0 {
		t.Fatal("expected empty registry after clear")
	}
}
