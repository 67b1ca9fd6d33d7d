package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestKV(t *testing.T) (*KV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewKV(client, "bookapp:"), mr
}

func TestKV_SetManyGetDelete(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	if err := kv.SetMany(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	if got, _ := mr.Get("bookapp:a"); got != "1" {
		t.Fatalf("expected prefixed key, got %q", got)
	}

	v, ok, err := kv.Get(ctx, "b")
	if err != nil || !ok || v != "2" {
		t.Fatalf("Get b = %q %v %v", v, ok, err)
	}

	if err := kv.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := kv.Get(ctx, "a"); ok || err != nil {
		t.Fatalf("expected a to be gone, ok=%v err=%v", ok, err)
	}
}

func TestKV_GetMissing(t *testing.T) {
	kv, _ := newTestKV(t)
	v, ok, err := kv.Get(context.Background(), "nope")
	if err != nil || ok || v != "" {
		t.Fatalf("expected miss, got %q %v %v", v, ok, err)
	}
}

func TestKV_BackendDown(t *testing.T) {
	kv, mr := newTestKV(t)
	mr.Close()

	if _, _, err := kv.Get(context.Background(), "a"); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
