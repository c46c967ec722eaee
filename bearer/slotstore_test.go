package bearer

import "testing"

func TestSlotStoreReserveInstallGet(t *testing.T) {
	s, err := NewSlotStore[int](4)
	if err != nil {
		t.Fatalf("NewSlotStore: %v", err)
	}

	key, err := s.ReserveNext()
	if err != nil {
		t.Fatalf("ReserveNext: %v", err)
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("Get on reserved-but-not-installed slot should fail")
	}
	if err := s.Install(key, 42); err != nil {
		t.Fatalf("Install: %v", err)
	}
	got, ok := s.Get(key)
	if !ok || *got != 42 {
		t.Fatalf("Get(%d) = %v, %v, want 42, true", key, got, ok)
	}
	if s.Occupied() != 1 {
		t.Errorf("Occupied() = %d, want 1", s.Occupied())
	}
	if s.Free() != 3 {
		t.Errorf("Free() = %d, want 3", s.Free())
	}
}

func TestSlotStoreInstallWithoutReserveFails(t *testing.T) {
	s, _ := NewSlotStore[int](2)
	if err := s.Install(0, 1); err != ErrSlotNotReserved {
		t.Fatalf("Install() = %v, want ErrSlotNotReserved", err)
	}
}

func TestSlotStoreExhaustion(t *testing.T) {
	s, _ := NewSlotStore[int](2)
	if _, err := s.TakeNextWith(1); err != nil {
		t.Fatalf("TakeNextWith: %v", err)
	}
	if _, err := s.TakeNextWith(2); err != nil {
		t.Fatalf("TakeNextWith: %v", err)
	}
	if _, err := s.TakeNextWith(3); err != ErrExhausted {
		t.Fatalf("TakeNextWith() = %v, want ErrExhausted", err)
	}
}

func TestSlotStoreMarkReusableReclaimsKey(t *testing.T) {
	s, _ := NewSlotStore[int](1)
	key, err := s.TakeNextWith(10)
	if err != nil {
		t.Fatalf("TakeNextWith: %v", err)
	}
	if err := s.MarkReusable(key); err != nil {
		t.Fatalf("MarkReusable: %v", err)
	}
	if s.Occupied() != 0 {
		t.Errorf("Occupied() = %d, want 0", s.Occupied())
	}
	if _, ok := s.Get(key); ok {
		t.Fatal("Get should fail after MarkReusable")
	}
	key2, err := s.TakeNextWith(20)
	if err != nil {
		t.Fatalf("TakeNextWith after reclaim: %v", err)
	}
	if key2 != key {
		t.Errorf("reclaimed key = %d, want reused key %d", key2, key)
	}
}

func TestSlotStoreMarkReusableOnReservedOnly(t *testing.T) {
	s, _ := NewSlotStore[int](1)
	key, err := s.ReserveNext()
	if err != nil {
		t.Fatalf("ReserveNext: %v", err)
	}
	if err := s.MarkReusable(key); err != nil {
		t.Fatalf("MarkReusable on reserved-only slot: %v", err)
	}
	if s.Free() != 1 {
		t.Errorf("Free() = %d, want 1", s.Free())
	}
}

func TestSlotStoreMarkReusableUnknownKey(t *testing.T) {
	s, _ := NewSlotStore[int](1)
	if err := s.MarkReusable(99); err != ErrSlotNotReserved {
		t.Fatalf("MarkReusable(99) = %v, want ErrSlotNotReserved", err)
	}
}

func TestNewSlotStoreZeroCapacity(t *testing.T) {
	if _, err := NewSlotStore[int](0); err == nil {
		t.Fatal("NewSlotStore(0) should fail")
	}
}

func TestSlotStoreAddressStability(t *testing.T) {
	type payload struct{ v [32]byte }
	s, _ := NewSlotStore[payload](4)
	key, _ := s.TakeNextWith(payload{})
	p1, _ := s.Get(key)
	addr1 := p1
	key2, _ := s.TakeNextWith(payload{})
	_ = key2
	p2, _ := s.Get(key)
	if p1 != p2 {
		t.Errorf("slot address moved across an unrelated insert: %p != %p", addr1, p2)
	}
}
