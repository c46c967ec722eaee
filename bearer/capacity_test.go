package bearer

import "testing"

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    uint32
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{64, true},
		{100, false},
	}
	for _, tt := range tests {
		if got := isPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("isPowerOfTwo(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestBearerCapacityKindString(t *testing.T) {
	tests := []struct {
		k    BearerCapacityKind
		want string
	}{
		{CapacityCoreQueue, "CoreQueue"},
		{CapacityRegisteredFd, "RegisteredFd"},
		{CapacityPendingCompletions, "PendingCompletions"},
		{CapacityBuffers, "Buffers"},
		{CapacityFutexes, "Futexes"},
		{BearerCapacityKind(255), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
