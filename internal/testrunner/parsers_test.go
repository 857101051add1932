package testrunner

import "testing"

func TestParsePytestFindsSourceFileFromTraceback(t *testing.T) {
	out := `============================= FAILURES =============================
____________________________ test_multiply ____________________________

    def test_multiply():
>       assert multiply(2, 3) == 5
tests/test_calc.py:5: in test_multiply
    assert multiply(2, 3) == 5
calculator.py:2: in multiply
    return a * b
E   AssertionError: assert 6 == 5

=========================== short test summary info ===========================
FAILED tests/test_calc.py::test_multiply - AssertionError: assert 6 == 5
`
	outcomes := parsePytest(out)
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d: %+v", len(outcomes), outcomes)
	}
	o := outcomes[0]
	if o.File != "calculator.py" || o.Line != 2 {
		t.Errorf("expected source file calculator.py:2, got %s:%d", o.File, o.Line)
	}
	if o.Passed {
		t.Error("expected failing outcome")
	}
}

func TestParsePytestFallsBackToDerivedSourceFile(t *testing.T) {
	out := `=========================== short test summary info ===========================
FAILED tests/test_calc.py::test_multiply - AssertionError: assert 6 == 5
`
	outcomes := parsePytest(out)
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].File != "tests/calc.py" {
		t.Errorf("expected derived source file tests/calc.py, got %s", outcomes[0].File)
	}
}

func TestParsePytestPassed(t *testing.T) {
	out := "tests/test_calc.py::test_add PASSED\n"
	outcomes := parsePytest(out)
	if len(outcomes) != 1 || !outcomes[0].Passed {
		t.Fatalf("expected 1 passing outcome, got %+v", outcomes)
	}
}

func TestParseUnittestOkAndFail(t *testing.T) {
	out := "test_add (test_calc.Calc) ... ok\ntest_multiply (test_calc.Calc) ... FAIL\n"
	outcomes := parseUnittest(out)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Passed || outcomes[1].Passed {
		t.Errorf("unexpected pass/fail split: %+v", outcomes)
	}
}

func TestParseJSFrameworkPassAndFail(t *testing.T) {
	out := "  ✓ adds numbers (2 ms)\n" +
		"  ✕ multiplies numbers (1 ms)\n" +
		"    at Object.<anonymous> (calculator.test.js:10:5)\n" +
		"    at Object.<anonymous> (calculator.js:2:10)\n"
	outcomes := parseJSFramework(out)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d: %+v", len(outcomes), outcomes)
	}
	if !outcomes[0].Passed {
		t.Error("expected first outcome to pass")
	}
	if outcomes[1].Passed || outcomes[1].File != "calculator.js" {
		t.Errorf("expected failing outcome pointing at calculator.js, got %+v", outcomes[1])
	}
}

func TestSourceFileForDropsTestPrefixAndSuffix(t *testing.T) {
	cases := map[string]string{
		"tests/test_calc.py": "tests/calc.py",
		"calc_test.py":        "calc.py",
		"calc.test.js":        "calc.js",
		"calc.test.ts":        "calc.ts",
		"calc.py":             "calc.py",
	}
	for in, want := range cases {
		if got := sourceFileFor(in); got != want {
			t.Errorf("sourceFileFor(%q) = %q, want %q", in, got, want)
		}
	}
}
