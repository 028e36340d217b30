package game

import (
	"errors"
	"strconv"
	"testing"
)

func TestStart_TargetInRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		r := Start(DefaultMaxTries)
		if r.Target < MinGuess || r.Target > MaxGuess {
			t.Fatalf("Target = %d, want within [%d, %d]", r.Target, MinGuess, MaxGuess)
		}
	}
}

func TestStart_FreshRound(t *testing.T) {
	r := Start(0)
	if r.MaxTries != DefaultMaxTries {
		t.Errorf("MaxTries = %d, want %d", r.MaxTries, DefaultMaxTries)
	}
	if r.TriesUsed != 0 || len(r.History) != 0 || r.Over {
		t.Errorf("new round = %+v, want zero tries, empty history, not over", r)
	}
	if r.ID == "" {
		t.Error("ID should not be empty")
	}
}

func TestSubmit_WinOnFirstGuessForEveryTarget(t *testing.T) {
	for n := MinGuess; n <= MaxGuess; n++ {
		r := NewWithTarget(DefaultMaxTries, n)
		res, err := r.Submit(itoa(n))
		if err != nil {
			t.Fatalf("target %d: unexpected error %v", n, err)
		}
		if res.Outcome != OutcomeWin || res.TriesUsed != 1 {
			t.Fatalf("target %d: result = %+v, want win with 1 try", n, res)
		}
		if !r.Over || !r.Won {
			t.Fatalf("target %d: round should be over and won", n)
		}
	}
}

func TestSubmit_LossOnLastTry(t *testing.T) {
	r := NewWithTarget(DefaultMaxTries, 1000)
	var res Result
	var err error
	for i := 0; i < DefaultMaxTries; i++ {
		res, err = r.Submit(itoa(i))
		if err != nil {
			t.Fatalf("guess %d: unexpected error %v", i, err)
		}
		if i < DefaultMaxTries-1 && (res.Lost || r.Over) {
			t.Fatalf("guess %d: round ended early", i)
		}
	}
	if !res.Lost {
		t.Error("last result should carry Lost")
	}
	if res.Target == nil || *res.Target != 1000 {
		t.Errorf("Target = %v, want 1000", res.Target)
	}
	if !r.Over || r.Won {
		t.Errorf("round Over=%v Won=%v, want over and not won", r.Over, r.Won)
	}
	if r.State() != "lost" {
		t.Errorf("State = %q, want %q", r.State(), "lost")
	}

	before := len(r.History)
	_, err = r.Submit("500")
	if !errors.Is(err, ErrRoundOver) {
		t.Errorf("err = %v, want ErrRoundOver", err)
	}
	if len(r.History) != before || r.TriesUsed != DefaultMaxTries {
		t.Errorf("history/tries changed after round over: %d/%d", len(r.History), r.TriesUsed)
	}
}

func TestSubmit_AfterWinRejected(t *testing.T) {
	r := NewWithTarget(DefaultMaxTries, 7)
	if _, err := r.Submit("7"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Submit("8"); !errors.Is(err, ErrRoundOver) {
		t.Errorf("err = %v, want ErrRoundOver", err)
	}
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	r := NewWithTarget(DefaultMaxTries, 500)
	if _, err := r.Submit("100"); err != nil {
		t.Fatal(err)
	}
	_, err := r.Submit(" 100 ")
	var inv *InvalidGuessError
	if !errors.As(err, &inv) || inv.Reason != ReasonDuplicate {
		t.Fatalf("err = %v, want duplicate InvalidGuessError", err)
	}
	if len(r.History) != 1 || r.TriesUsed != 1 {
		t.Errorf("history len = %d, tries = %d, want 1/1", len(r.History), r.TriesUsed)
	}
	if inv.Error() != "You already guessed 100! Try a different number." {
		t.Errorf("message = %q", inv.Error())
	}
}

func TestSubmit_Parity(t *testing.T) {
	cases := []struct {
		target int
		want   Parity
	}{
		{500, Even},
		{501, Odd},
	}
	for _, tc := range cases {
		r := NewWithTarget(DefaultMaxTries, tc.target)
		for _, g := range []string{"0", "1000", "250", "999", "3"} {
			res, err := r.Submit(g)
			if err != nil {
				t.Fatalf("target %d guess %s: %v", tc.target, g, err)
			}
			if res.Parity != tc.want {
				t.Errorf("target %d guess %s: Parity = %q, want %q", tc.target, g, res.Parity, tc.want)
			}
		}
	}
}

func TestSubmit_Direction(t *testing.T) {
	r := NewWithTarget(DefaultMaxTries, 500)
	res, err := r.Submit("700")
	if err != nil {
		t.Fatal(err)
	}
	if res.Direction != TooHigh {
		t.Errorf("Direction = %q, want %q", res.Direction, TooHigh)
	}
	res, err = r.Submit("300")
	if err != nil {
		t.Fatal(err)
	}
	if res.Direction != TooLow {
		t.Errorf("Direction = %q, want %q", res.Direction, TooLow)
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	r := NewWithTarget(10, 42)

	_, err := r.Submit("abc")
	assertReason(t, err, ReasonNotANumber)

	_, err = r.Submit("1500")
	assertReason(t, err, ReasonOutOfRange)

	res, err := r.Submit("50")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeFeedback || res.Direction != TooHigh || res.Parity != Even || res.TriesUsed != 1 {
		t.Errorf("guess 50: result = %+v", res)
	}

	res, err = r.Submit("42")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeWin || res.TriesUsed != 2 {
		t.Errorf("guess 42: result = %+v, want win in 2", res)
	}
}

func TestSubmit_InvalidInputs(t *testing.T) {
	cases := map[string]Reason{
		"":      ReasonNotANumber,
		"  ":    ReasonNotANumber,
		"12abc": ReasonNotANumber,
		"3.5":   ReasonNotANumber,
		"-1":    ReasonOutOfRange,
		"1001":  ReasonOutOfRange,

		"99999999999999999999":  ReasonOutOfRange,
		"-99999999999999999999": ReasonOutOfRange,
	}
	for in, want := range cases {
		r := NewWithTarget(DefaultMaxTries, 5)
		_, err := r.Submit(in)
		assertReason(t, err, want)
		if r.TriesUsed != 0 {
			t.Errorf("input %q consumed a try", in)
		}
	}
}

func TestSnapshot_HidesTargetWhilePlaying(t *testing.T) {
	r := NewWithTarget(3, 9)
	if s := r.Snapshot(); s.Target != nil || s.State != "playing" || s.Remaining != 3 {
		t.Errorf("snapshot = %+v", s)
	}
	_, _ = r.Submit("9")
	s := r.Snapshot()
	if s.Target == nil || *s.Target != 9 || s.State != "won" {
		t.Errorf("snapshot after win = %+v", s)
	}
}

func assertReason(t *testing.T, err error, want Reason) {
	t.Helper()
	var inv *InvalidGuessError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidGuessError(%s)", err, want)
	}
	if inv.Reason != want {
		t.Errorf("Reason = %q, want %q", inv.Reason, want)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
