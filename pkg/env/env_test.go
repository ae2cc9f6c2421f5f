package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("WHOLESALEHUB_TEST_VALUE", "  ")
	if got := Get("WHOLESALEHUB_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("WHOLESALEHUB_TEST_VALUE", "set")
	if got := Get("WHOLESALEHUB_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestInstanceIDPrefersExplicitValue(t *testing.T) {
	t.Setenv("WHOLESALEHUB_INSTANCE_ID", "worker-7")
	if got := InstanceID("worker-0"); got != "worker-7" {
		t.Fatalf("expected worker-7, got %q", got)
	}
}
