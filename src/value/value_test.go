package value

import "testing"

func TestParseValueRoundtrip(t *testing.T) {
	tests := []struct {
		dt  DataType
		raw string
	}{
		{Text, "hello"},
		{Boolean, "true"},
		{Boolean, "false"},
		{Number, "12.50"},
		{Date, "2020-02-20"},
	}
	for _, test := range tests {
		v, err := ParseValue(test.dt, test.raw)
		if err != nil {
			t.Fatalf("ParseValue(%v, %q): %v", test.dt, test.raw, err)
		}
		if v.Type != test.dt {
			t.Errorf("expected dtype %v, got %v", test.dt, v.Type)
		}
	}
}

func TestEqNullIsFalse(t *testing.T) {
	a := NullValue(Number)
	b := NumberFromInt(5)
	eq, err := Eq(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if eq {
		t.Errorf("expected comparison against null to be false")
	}
}

func TestArithmeticWithNull(t *testing.T) {
	a := NullValue(Number)
	b := NumberFromInt(5)
	sum, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Null {
		t.Errorf("expected null + 5 to be null, got %v", sum)
	}
}

func TestDivisionByZero(t *testing.T) {
	a := NumberFromInt(5)
	b := NumberFromInt(0)
	if _, err := Div(a, b); err == nil {
		t.Errorf("expected division by zero to error")
	}
}

func TestModuloByZero(t *testing.T) {
	a := NumberFromInt(5)
	b := NumberFromInt(0)
	if _, err := Mod(a, b); err == nil {
		t.Errorf("expected modulo by zero to error")
	}
}

func TestModulo(t *testing.T) {
	a := NumberFromInt(7)
	b := NumberFromInt(3)
	m, err := Mod(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if m.String() != "1" {
		t.Errorf("expected 7 %% 3 = 1, got %v", m.String())
	}
}

func TestMinMaxAbsorbNull(t *testing.T) {
	a := NumberFromInt(3)
	b := NullValue(Number)
	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if min.Null {
		t.Errorf("expected min(3, null) to be 3, got null")
	}
	max, err := Max(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if max.Null {
		t.Errorf("expected max(3, null) to be 3, got null")
	}
}

func TestCompareNullableSortsNullFirst(t *testing.T) {
	n := NullValue(Number)
	five := NumberFromInt(5)
	if CompareNullable(n, five) >= 0 {
		t.Errorf("expected null to sort before a non-null number")
	}
	if CompareNullable(five, n) <= 0 {
		t.Errorf("expected a non-null number to sort after null")
	}
}

func TestDateParsingRejectsInvalidCalendarDates(t *testing.T) {
	if _, err := ParseDay("2021-02-30"); err == nil {
		t.Errorf("expected Feb 30 to be rejected")
	}
	d, err := ParseDay("2020-02-20")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2020-02-20" {
		t.Errorf("expected roundtrip, got %v", d.String())
	}
}

func TestThreeValuedBooleanLogic(t *testing.T) {
	nullB := NullValue(Boolean)
	falseB := BoolValue(false)
	trueB := BoolValue(true)

	if and, _ := And(falseB, nullB); and.Null || and.AsBool() {
		t.Errorf("expected false AND null to be false")
	}
	if or, _ := Or(trueB, nullB); or.Null || !or.AsBool() {
		t.Errorf("expected true OR null to be true")
	}
	if and, _ := And(trueB, nullB); !and.Null {
		t.Errorf("expected true AND null to be null")
	}
}
