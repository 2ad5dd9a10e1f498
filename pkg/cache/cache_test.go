package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("session:abc", "u1", time.Second)
	val, ok := c.Get("session:abc")
	if !ok || val != "u1" {
		t.Fatalf("expected u1, got %v, exists=%v", val, ok)
	}
}

func TestOverwrite(t *testing.T) {
	c := New()
	c.Set("session:abc", "u1", time.Second)
	c.Set("session:abc", "u2", time.Second)
	val, _ := c.Get("session:abc")
	if val != "u2" {
		t.Fatalf("expected overwritten value u2, got %v", val)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("session:abc", "u1", 30*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if _, ok := c.Get("session:abc"); ok {
		t.Fatal("expected expired key to return false")
	}
	// The expired read dropped the entry
	if c.Len() != 0 {
		t.Fatalf("expected 0 entries after expiry read, got %d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("session:abc", "u1", time.Second)
	c.Delete("session:abc")
	if _, ok := c.Get("session:abc"); ok {
		t.Fatal("expected deleted key to return false")
	}
	c.Delete("session:never-set")
}
