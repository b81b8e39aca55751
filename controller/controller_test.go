package controller_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/goforma/controller"
)

func TestSetValueCreatesIntermediateContainers(t *testing.T) {
	c := controller.New(nil)
	c.SetValue("profile.address.city", "Tokyo")
	c.SetValue("members.1.email", "b@example.com")

	want := map[string]any{
		"profile": map[string]any{"address": map[string]any{"city": "Tokyo"}},
		"members": []any{nil, map[string]any{"email": "b@example.com"}},
	}
	if diff := cmp.Diff(want, c.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	v, ok := c.GetValue("members.1.email")
	if !ok || v != "b@example.com" {
		t.Fatalf("GetValue(members.1.email) = %v, %v", v, ok)
	}
	if _, ok := c.GetValue("members.5"); ok {
		t.Fatalf("GetValue past the end must not resolve")
	}
	if _, ok := c.GetValue("profile.missing.deeper"); ok {
		t.Fatalf("GetValue through a missing segment must not resolve")
	}
}

func TestValuesSnapshotIsDetached(t *testing.T) {
	c := controller.New(map[string]any{"profile": map[string]any{"name": "a"}})
	snap := c.Values()
	snap["profile"].(map[string]any)["name"] = "mutated"

	v, _ := c.GetValue("profile.name")
	if v != "a" {
		t.Fatalf("mutating a snapshot leaked into the controller: %v", v)
	}
}

func TestRegisterFieldSeedsDefaultOnce(t *testing.T) {
	c := controller.New(map[string]any{"plan": "pro"})

	var notified []string
	c.Subscribe(func(p string) { notified = append(notified, p) })

	if b := c.RegisterField("plan", "free"); b.Value != "pro" {
		t.Fatalf("existing value must win over the default, got %v", b.Value)
	}
	if b := c.RegisterField("newsletter", true); b.Value != true {
		t.Fatalf("default must seed a missing value, got %v", b.Value)
	}
	if len(notified) != 0 {
		t.Fatalf("seeding is not an edit; notified %v", notified)
	}
	if b := c.RegisterField("newsletter", nil); b.Dirty || b.Touched {
		t.Fatalf("seeded field must start clean: %+v", b)
	}
}

func TestBindingHandlersTrackState(t *testing.T) {
	c := controller.New(nil)
	b := c.RegisterField("email", nil)

	b.OnChange("x@example.com")
	b.OnBlur()

	after := c.RegisterField("email", nil)
	if after.Value != "x@example.com" {
		t.Fatalf("OnChange did not write: %v", after.Value)
	}
	if !after.Dirty || !after.Touched {
		t.Fatalf("expected dirty and touched, got %+v", after)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	c := controller.New(nil)
	var got []string
	unsub := c.Subscribe(func(p string) { got = append(got, p) })

	c.SetValue("a", 1)
	unsub()
	c.SetValue("b", 2)

	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Fatalf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayIdentityFollowsItems(t *testing.T) {
	c := controller.New(map[string]any{"members": []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		map[string]any{"name": "c"},
	}})
	arr := c.FieldArray("members")

	items := arr.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	idA, idB, idC := items[0].ID, items[1].ID, items[2].ID
	if idA == "" || idA == idB || idB == idC || idA == idC {
		t.Fatalf("ids must be distinct and non-empty: %v %v %v", idA, idB, idC)
	}

	// Stable across reads.
	if again := arr.Items(); again[0].ID != idA {
		t.Fatalf("ids must be stable across reads")
	}

	arr.Move(0, 2)
	moved := arr.Items()
	wantIDs := []string{idB, idC, idA}
	for i, it := range moved {
		if it.ID != wantIDs[i] {
			t.Fatalf("after move, id[%d] = %s, want %s", i, it.ID, wantIDs[i])
		}
	}
	if name := moved[2].Value.(map[string]any)["name"]; name != "a" {
		t.Fatalf("after move, values must follow: got %v", name)
	}

	arr.Remove(1)
	left := arr.Items()
	if len(left) != 2 || left[0].ID != idB || left[1].ID != idA {
		t.Fatalf("remove must splice ids with values: %+v", left)
	}

	arr.Append(map[string]any{"name": "d"})
	grown := arr.Items()
	if len(grown) != 3 {
		t.Fatalf("append failed: %d items", len(grown))
	}
	if id := grown[2].ID; id == idA || id == idB || id == idC {
		t.Fatalf("appended item must get a fresh id")
	}
}

func TestArrayOutOfRangeIsNoop(t *testing.T) {
	c := controller.New(map[string]any{"members": []any{"a", "b"}})
	arr := c.FieldArray("members")

	arr.Remove(-1)
	arr.Remove(5)
	arr.Move(0, 9)
	arr.Move(-2, 0)

	if got := arr.Items(); len(got) != 2 {
		t.Fatalf("out-of-range operations must not change the array: %+v", got)
	}
}

func TestArrayOperationsNotifyArrayPath(t *testing.T) {
	c := controller.New(map[string]any{"members": []any{"a"}})
	var got []string
	c.Subscribe(func(p string) { got = append(got, p) })

	arr := c.FieldArray("members")
	arr.Append("b")
	arr.Move(0, 1)
	arr.Remove(0)

	if diff := cmp.Diff([]string{"members", "members", "members"}, got); diff != "" {
		t.Fatalf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorsAttachAndClear(t *testing.T) {
	c := controller.New(nil)
	c.SetError("email", "required")

	if b := c.RegisterField("email", nil); b.Error != "required" {
		t.Fatalf("expected the attached error, got %q", b.Error)
	}
	c.ClearErrors()
	if b := c.RegisterField("email", nil); b.Error != "" {
		t.Fatalf("expected errors cleared, got %q", b.Error)
	}
}

func TestResetForgetsEverything(t *testing.T) {
	c := controller.New(nil)
	c.SetValue("email", "x@example.com")
	c.FieldArray("tags").Append("go")

	var notified []string
	c.Subscribe(func(p string) { notified = append(notified, p) })

	c.Reset(map[string]any{"email": "fresh@example.com"})

	if b := c.RegisterField("email", nil); b.Dirty || b.Value != "fresh@example.com" {
		t.Fatalf("reset must replace values and clear metadata: %+v", b)
	}
	if _, ok := c.GetValue("tags"); ok {
		t.Fatalf("reset must drop paths absent from the new tree")
	}
	if diff := cmp.Diff([]string{""}, notified); diff != "" {
		t.Fatalf("reset notifies the root (-want +got):\n%s", diff)
	}
}
