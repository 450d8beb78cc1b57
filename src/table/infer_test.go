package table

import (
	"testing"

	"github.com/tablestream-io/tablestream/src/value"
)

func TestTypeGuesserAllNumbers(t *testing.T) {
	tg := NewTypeGuesser()
	for _, s := range []string{"1", "2", "3.5"} {
		tg.AddValue(s)
	}
	dt, nullable := tg.InferredType()
	if dt != value.Number {
		t.Errorf("expected Number, got %v", dt)
	}
	if nullable {
		t.Errorf("expected non-nullable")
	}
}

func TestTypeGuesserNullMakesNullable(t *testing.T) {
	tg := NewTypeGuesser()
	tg.AddValue("1")
	tg.AddValue("")
	tg.AddValue("2")
	_, nullable := tg.InferredType()
	if !nullable {
		t.Errorf("expected nullable once an empty field is seen")
	}
}

func TestTypeGuesserMixedTypesFallsBackToText(t *testing.T) {
	tg := NewTypeGuesser()
	tg.AddValue("1")
	tg.AddValue("2020-02-20")
	dt, _ := tg.InferredType()
	if dt != value.Text {
		t.Errorf("expected a mix of number and date to fall back to Text, got %v", dt)
	}
}

func TestTypeGuesserStickyText(t *testing.T) {
	tg := NewTypeGuesser()
	tg.AddValue("hello")
	tg.AddValue("1")
	dt, _ := tg.InferredType()
	if dt != value.Text {
		t.Errorf("expected Text to stick once seen, got %v", dt)
	}
}

func TestTypeGuesserAllNullsDefaultsToText(t *testing.T) {
	tg := NewTypeGuesser()
	tg.AddValue("")
	tg.AddValue("")
	dt, nullable := tg.InferredType()
	if dt != value.Text {
		t.Errorf("expected Text when every sampled value is null, got %v", dt)
	}
	if !nullable {
		t.Errorf("expected nullable")
	}
}

func TestTypeGuesserNoRowsDefaultsToNullableText(t *testing.T) {
	tg := NewTypeGuesser()
	dt, nullable := tg.InferredType()
	if dt != value.Text || !nullable {
		t.Errorf("expected nullable Text when no rows were sampled, got %v, %v", dt, nullable)
	}
}

func TestGuessTypeBooleanBeforeNumber(t *testing.T) {
	if guessType("true") != value.Boolean {
		t.Errorf("expected true to guess as Boolean")
	}
	if guessType("2020-02-20") != value.Date {
		t.Errorf("expected a calendar date to guess as Date")
	}
	if guessType("42") != value.Number {
		t.Errorf("expected 42 to guess as Number")
	}
	if guessType("hello") != value.Text {
		t.Errorf("expected hello to guess as Text")
	}
}
