package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestPublishAndReadLatest(t *testing.T) {
	dir := t.TempDir()
	m := NewFilesystemManifest(dir)
	if err := m.Publish(Manifest{Stage: "raw_products", SnapshotID: "sid-123", Rows: 42, Path: "raw/x.csv"}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	got, err := m.ReadLatest("raw_products")
	if err != nil {
		t.Fatalf("ReadLatest error: %v", err)
	}
	if got.SnapshotID != "sid-123" || got.Rows != 42 || got.CreatedAtEpochSecond == 0 {
		t.Fatalf("unexpected manifest: %+v", got)
	}
}

func TestPublish_StagesAreIndependent(t *testing.T) {
	m := NewFilesystemManifest(t.TempDir())
	if err := m.Publish(Manifest{Stage: "raw_products", SnapshotID: "a"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Publish(Manifest{Stage: "enriched", SnapshotID: "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := m.ReadLatest("raw_products")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.SnapshotID != "a" {
		t.Fatalf("stage file overwritten across stages: %+v", got)
	}
}

func TestPublish_LatestWins(t *testing.T) {
	m := NewFilesystemManifest(t.TempDir())
	for _, sid := range []string{"first", "second"} {
		if err := m.Publish(Manifest{Stage: "enriched", SnapshotID: sid}); err != nil {
			t.Fatalf("publish %s: %v", sid, err)
		}
	}
	got, err := m.ReadLatest("enriched")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.SnapshotID != "second" {
		t.Fatalf("latest manifest must win, got %+v", got)
	}
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaManifest_Publish_Success(t *testing.T) {
	fw := &fakeKafkaWriter{}
	k := NewKafkaManifestWith(fw)
	if err := k.Publish(Manifest{Stage: "normalized_products", SnapshotID: "sid-9", Rows: 7}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(fw.msgs))
	}
	if string(fw.msgs[0].Key) != "nutriscan-manifest-normalized_products" {
		t.Fatalf("key: got %q", fw.msgs[0].Key)
	}
	var m Manifest
	if err := json.Unmarshal(fw.msgs[0].Value, &m); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if m.SnapshotID != "sid-9" || m.Rows != 7 || m.CreatedAtEpochSecond == 0 {
		t.Fatalf("unexpected payload: %+v", m)
	}
}

func TestKafkaManifest_Publish_Failure(t *testing.T) {
	k := NewKafkaManifestWith(&fakeKafkaWriter{fail: true})
	if err := k.Publish(Manifest{Stage: "enriched"}); err == nil {
		t.Fatalf("expected write failure to surface")
	}
}

func TestMultiPublisher_FansOut(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	a, b := NewFilesystemManifest(dirA), NewFilesystemManifest(dirB)
	if err := MultiPublisher(a, b).Publish(Manifest{Stage: "enriched", SnapshotID: "s"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, fs := range []*FilesystemManifest{a, b} {
		if _, err := fs.ReadLatest("enriched"); err != nil {
			t.Fatalf("fan-out target missing manifest: %v", err)
		}
	}
}
