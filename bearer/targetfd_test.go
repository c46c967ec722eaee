package bearer

import (
	"testing"

	"github.com/yaws-rs/io-uring-utils/internal/sys"
)

func TestTargetFdFileIndex(t *testing.T) {
	tests := []struct {
		name string
		t    TargetFd
		want uint32
	}{
		{"unregistered", Unregistered(), 0},
		{"auto", AutoRegistered(), sys.DestinationSlotAuto},
		{"manual_0", ManualRegistered(0), 1},
		{"manual_7", ManualRegistered(7), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.fileIndex(); got != tt.want {
				t.Errorf("fileIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}
