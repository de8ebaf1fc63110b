package ports

import (
	"context"
	"testing"
)

// Mock implementations for testing interfaces.

type mockKeyValueStore struct {
	values map[string][]byte
}

func (m *mockKeyValueStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockKeyValueStore) Save(ctx context.Context, key string, value []byte) error {
	m.values[key] = append([]byte(nil), value...)
	return nil
}

var _ KeyValueStore = (*mockKeyValueStore)(nil)

func TestMockKeyValueStore(t *testing.T) {
	kv := &mockKeyValueStore{values: make(map[string][]byte)}
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := kv.Load(ctx, KeyTasks)
		if err != nil {
			t.Errorf("Load() error = %v", err)
		}
		if ok {
			t.Error("Load() should report a missing key")
		}
	})

	t.Run("save and load", func(t *testing.T) {
		buf := []byte(`{"phase":"focus"}`)
		if err := kv.Save(ctx, KeyTimerState, buf); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		buf[0] = 'x'

		got, ok, err := kv.Load(ctx, KeyTimerState)
		if err != nil || !ok {
			t.Fatalf("Load() = %v, %v", ok, err)
		}
		if string(got) != `{"phase":"focus"}` {
			t.Errorf("Load() = %s, want stored copy", got)
		}
	})
}

func TestGitInfo_ShortCommit(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"0123456789abcdef", "0123456"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		g := &GitInfo{Commit: tt.commit}
		if got := g.ShortCommit(); got != tt.want {
			t.Errorf("ShortCommit(%q) = %q, want %q", tt.commit, got, tt.want)
		}
	}
}
