package column

import (
	"testing"

	"github.com/tablestream-io/tablestream/src/bitmap"
	"github.com/tablestream-io/tablestream/src/value"
)

func TestDenseVectorPrune(t *testing.T) {
	v := NewDenseVector(value.Number, []value.Value{
		value.NumberFromInt(1), value.NumberFromInt(2), value.NumberFromInt(3),
	})
	keep := bitmap.NewBitmap(3)
	keep.Set(0, true)
	keep.Set(2, true)
	pruned := v.Prune(keep)
	if pruned.Len() != 2 {
		t.Fatalf("expected 2 rows after pruning, got %d", pruned.Len())
	}
	if pruned.Get(0).String() != "1" || pruned.Get(1).String() != "3" {
		t.Errorf("unexpected pruned values: %v, %v", pruned.Get(0), pruned.Get(1))
	}
}

func TestDenseVectorAppend(t *testing.T) {
	a := NewDenseVector(value.Text, []value.Value{value.TextValue("a")})
	b := NewDenseVector(value.Text, []value.Value{value.TextValue("b")})
	merged, err := a.Append(b)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", merged.Len())
	}
	if merged.Get(0).AsText() != "a" || merged.Get(1).AsText() != "b" {
		t.Errorf("unexpected append result")
	}
}

func TestDenseVectorAppendTypeMismatch(t *testing.T) {
	a := NewDenseVector(value.Text, nil)
	b := NewDenseVector(value.Number, nil)
	if _, err := a.Append(b); err == nil {
		t.Errorf("expected type mismatch error")
	}
}

func TestLiteralVectorBroadcastsAndMaterializes(t *testing.T) {
	lv := NewLiteralVector(value.NumberFromInt(42), 3)
	if lv.Len() != 3 {
		t.Fatalf("expected length 3, got %d", lv.Len())
	}
	for i := 0; i < 3; i++ {
		if lv.Get(i).String() != "42" {
			t.Errorf("expected every row to be 42, got %v at %d", lv.Get(i), i)
		}
	}
	dense := lv.Materialize()
	if dense.Len() != 3 {
		t.Errorf("expected materialized vector of length 3, got %d", dense.Len())
	}
}

func TestLiteralVectorPrune(t *testing.T) {
	lv := NewLiteralVector(value.BoolValue(true), 5)
	keep := bitmap.NewBitmap(5)
	keep.Set(1, true)
	keep.Set(3, true)
	pruned := lv.Prune(keep)
	if pruned.Len() != 2 {
		t.Errorf("expected pruned literal vector of length 2, got %d", pruned.Len())
	}
}
