package monitoring

import "testing"

func TestGetBuildMetrics_NoPersistence(t *testing.T) {
	bm := NewBuildMonitor(nil, nil)
	if _, err := bm.GetBuildMetrics("some-build"); err == nil {
		t.Fatalf("expected error when no build repository is configured")
	}
}
