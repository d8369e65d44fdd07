package cache

import (
	"reflect"
	"testing"
)

func TestInvalidationTarget_AddSkipsEmptyAndDuplicates(t *testing.T) {
	t.Parallel()

	var target InvalidationTarget
	target.AddKeys("match:1", "", "match:1", "match:2")
	target.AddTags("teams:list", "teams:list")

	if !reflect.DeepEqual(target.Keys, []string{"match:1", "match:2"}) {
		t.Fatalf("unexpected keys: %v", target.Keys)
	}
	if !reflect.DeepEqual(target.Tags, []string{"teams:list"}) {
		t.Fatalf("unexpected tags: %v", target.Tags)
	}
}

func TestInvalidationTarget_MergeAndNormalize(t *testing.T) {
	t.Parallel()

	a := InvalidationTarget{Keys: []string{"b", "a"}}
	b := InvalidationTarget{Keys: []string{"a", "c"}, Patterns: []string{"p:*"}}

	a.Merge(b)
	a.Normalize()

	if !reflect.DeepEqual(a.Keys, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected merged keys: %v", a.Keys)
	}
	if !reflect.DeepEqual(a.Patterns, []string{"p:*"}) {
		t.Fatalf("unexpected patterns: %v", a.Patterns)
	}
}

func TestInvalidationTarget_IsEmpty(t *testing.T) {
	t.Parallel()

	var target InvalidationTarget
	if !target.IsEmpty() {
		t.Fatal("zero target must be empty")
	}
	target.AddPatterns("x:*")
	if target.IsEmpty() {
		t.Fatal("target with a pattern must not be empty")
	}
}
