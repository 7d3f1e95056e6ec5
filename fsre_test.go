package fsre

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbornjo/fsre/internal/oracle"
)

var testConfig = Config{MaxPatternLen: 6, MaxInputLen: 6, MaxThreads: 32, LookupBits: 8}

func newEvaluator(t *testing.T, opts ...evaluatorOption) *Evaluator {
	t.Helper()
	e, err := New(testConfig, opts...)
	require.NoError(t, err)
	return e
}

func TestEvaluator_Match(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  bool
	}{
		{"star matches zero", NewInput("ab*c", "ac"), true},
		{"star matches many", NewInput("ab*c", "abbbc"), true},
		{"star mismatch", NewInput("ab*c", "abd"), false},
		{"wildcard", NewInput("a.c", "axc"), true},
		{"wildcard consumes one", NewInput("a.c", "ac"), false},
		{"empty pattern empty input", NewInput("", ""), true},
		{"empty pattern", NewInput("", "a"), false},
		{"logical empty pattern", NewInput("abc", "abc").WithLengths(0, 0), true},
		{"logical empty pattern with input", NewInput("abc", "abc").WithLengths(0, 1), false},
		{"padding ignored", NewInput("ab*c**", "abbc.*").WithLengths(4, 4), true},
		{"padding not consumed", NewInput("a.cdef", "acxyzw").WithLengths(3, 2), false},
		{"full capacity", NewInput("abcdef", "abcdef"), true},
		{"unicode", NewInput("ü.*ß", "üxyß"), true},
	}

	for _, mode := range []engineMode{ENGINE_TABLE, ENGINE_THREAD_VM, ENGINE_CROSS_CHECK} {
		e := newEvaluator(t, WithEngine(mode))
		for _, tt := range tests {
			t.Run(mode.String()+"/"+tt.name, func(t *testing.T) {
				res, err := e.Match(tt.input)
				require.NoError(t, err)
				assert.Equal(t, tt.want, res.Accept)
			})
		}
	}
}

func TestEvaluator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{"pattern too long", NewInput("abcdefg", ""), ErrOverflow},
		{"input too long", NewInput("a*", "aaaaaaa"), ErrOverflow},
		{"pattern_len past capacity", NewInput("ab", "").WithLengths(7, 0), ErrOverflow},
		{"input_len past capacity", NewInput("ab", "ab").WithLengths(2, 1<<40), ErrOverflow},
		{"pattern_len past pattern", NewInput("ab", "").WithLengths(3, 0), ErrInvalidLength},
		{"input_len past input", NewInput("ab", "ab").WithLengths(2, 3), ErrInvalidLength},
		{"leading star", NewInput("*a", "a"), ErrMalformedPattern},
		{"repeated star", NewInput("a**", "a"), ErrMalformedPattern},
	}

	e := newEvaluator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Match(tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, res)
		})
	}

	_, err := e.Match(NewInput("*a", "a"))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "*a", cerr.Pattern)
}

func TestEvaluator_ThreadPoolExhausted(t *testing.T) {
	cfg := testConfig
	cfg.MaxThreads = 2
	e, err := New(cfg, WithEngine(ENGINE_THREAD_VM))
	require.NoError(t, err)

	_, err = e.MatchString("a*", "aaa")
	require.ErrorIs(t, err, ErrThreadPoolExhausted)

	// the table engine has no thread pool
	e, err = New(cfg)
	require.NoError(t, err)
	ok, err := e.MatchString("a*", "aaa")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew_Config(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing lookup bits", Config{}, "LookupBits"},
		{"lookup bits too wide", Config{LookupBits: 100}, "LookupBits"},
		{"lookup bits too narrow", Config{MaxThreads: 300, LookupBits: 8}, "LookupBits"},
		{"negative limit", Config{MaxInputLen: -1, LookupBits: 8}, "limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg)
			require.ErrorIs(t, err, ErrConfiguration)
			require.Nil(t, e)
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrMissingLookupBits)

	_, err = New(testConfig, WithEngine(_ENGINE_NONE))
	require.ErrorIs(t, err, ErrConfiguration)

	e, err := New(Config{LookupBits: 8})
	require.NoError(t, err)
	assert.Equal(t, Config{
		MaxPatternLen: DefaultMaxPatternLen,
		MaxInputLen:   DefaultMaxInputLen,
		MaxThreads:    DefaultMaxThreads,
		LookupBits:    8,
	}, e.Config())
	assert.Equal(t, ENGINE_TABLE, e.Engine())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLookupBits, "")
	_, err := ConfigFromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, ErrMissingLookupBits)

	t.Setenv(EnvLookupBits, "ten")
	_, err = ConfigFromEnv()
	require.ErrorIs(t, err, ErrConfiguration)

	t.Setenv(EnvLookupBits, "10")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{LookupBits: 10}, cfg)
}

func TestParseEngine(t *testing.T) {
	for _, mode := range []engineMode{ENGINE_TABLE, ENGINE_THREAD_VM, ENGINE_CROSS_CHECK} {
		got, err := ParseEngine(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseEngine("dfa")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestInput_JSON(t *testing.T) {
	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{"pattern":"ab*c","input_string":"abbcxx","pattern_len":4,"input_len":4}`), &in))
	require.NotNil(t, in.PatternLen)
	require.NotNil(t, in.InputLen)
	assert.Equal(t, uint64(4), *in.InputLen)

	var simple Input
	require.NoError(t, json.Unmarshal([]byte(`{"pattern":"a.c","input_string":"abc"}`), &simple))
	assert.Nil(t, simple.PatternLen)

	e := newEvaluator(t)
	for _, rec := range []Input{in, simple} {
		res, err := e.Match(rec)
		require.NoError(t, err)
		assert.True(t, res.Accept)
	}
}

func TestResult_PatternEcho(t *testing.T) {
	e := newEvaluator(t)
	res, err := e.Match(NewInput("ab*", "abb"))
	require.NoError(t, err)
	assert.Equal(t, []Symbol{'a', 'b', '*', 0, 0, 0}, res.Pattern)
}

// Every evaluation under one Config and engine costs the same.
func TestEvaluator_FixedShape(t *testing.T) {
	inputs := []Input{
		NewInput("", ""),
		NewInput("ab*c", "abbbc"),
		NewInput("a.c", "zzz"),
		NewInput("a*b*c*", "abcabc").WithLengths(6, 3),
	}
	for _, mode := range []engineMode{ENGINE_TABLE, ENGINE_THREAD_VM} {
		e := newEvaluator(t, WithEngine(mode))
		var ops []uint64
		for _, in := range inputs {
			res, err := e.Match(in)
			require.NoError(t, err)
			ops = append(ops, res.Ops)
		}
		for _, n := range ops[1:] {
			assert.Equal(t, ops[0], n, "%v", mode)
		}
	}
}

func TestEvaluator_Oracle(t *testing.T) {
	cfg := Config{MaxPatternLen: 4, MaxInputLen: 3, MaxThreads: 24, LookupBits: 6}
	e, err := New(cfg, WithEngine(ENGINE_CROSS_CHECK))
	require.NoError(t, err)

	patterns := []string{"", "a", "a*", ".", ".*", "ab", "a*b", "a.*b", "a*b*", ".*.*", "b.a*", "ab.b"}
	inputs := []string{"", "a", "b", "ab", "ba", "aab", "abb", "bab"}
	for _, p := range patterns {
		for _, s := range inputs {
			got, err := e.MatchString(p, s)
			require.NoError(t, err, "pattern %q input %q", p, s)
			require.Equal(t, oracle.Match(p, s), got, "pattern %q input %q", p, s)
		}
	}
}

func TestEvaluator_Trace(t *testing.T) {
	var events []TraceEvent
	e := newEvaluator(t, WithTrace(func(ev TraceEvent) { events = append(events, ev) }))

	ok, err := e.MatchString("ab*c", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, events, 1+testConfig.MaxInputLen)
	assert.True(t, events[len(events)-1].States.Has(4))
}

func TestEvaluator_Concurrent(t *testing.T) {
	e := newEvaluator(t, WithEngine(ENGINE_CROSS_CHECK))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := e.MatchString("ab*c", "abbc")
			if err == nil && !ok {
				err = errors.New("rejected")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
