package combinator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pc "its-hmny.dev/toyc/pkg/combinator"
)

func TestRegexp(t *testing.T) {
	digits := pc.Regexp(`[0-9]+`)

	t.Run("Matches at the current index", func(t *testing.T) {
		result, err := digits.Parse(pc.Source{Content: "42 apples"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "42", result.Value)
		assert.Equal(t, 2, result.Source.Index)
	})

	t.Run("Is sticky, never scans forward", func(t *testing.T) {
		result, err := digits.Parse(pc.Source{Content: "abc 42"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("Resumes from a mid-input cursor", func(t *testing.T) {
		result, err := digits.Parse(pc.Source{Content: "abc42xyz", Index: 3})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "42", result.Value)
		assert.Equal(t, 5, result.Source.Index)
	})

	t.Run("Alternation stays anchored", func(t *testing.T) {
		keyword := pc.Regexp(`if|while`)
		result, err := keyword.Parse(pc.Source{Content: "do while"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestConstant(t *testing.T) {
	parser := pc.Constant("anything")

	result, err := parser.Parse(pc.Source{Content: "untouched", Index: 3})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "anything", result.Value)
	// Constant never consumes input
	assert.Equal(t, 3, result.Source.Index)
}

func TestError(t *testing.T) {
	parser := pc.Error[string]("boom")

	result, err := parser.Parse(pc.Source{Content: "whatever"})
	assert.Nil(t, result)
	assert.EqualError(t, err, "boom")
}

func TestOr(t *testing.T) {
	a, b := pc.Regexp(`a+`), pc.Regexp(`b+`)

	t.Run("First alternative wins", func(t *testing.T) {
		result, err := pc.Or(a, b).Parse(pc.Source{Content: "aaab"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "aaa", result.Value)
	})

	t.Run("Falls through on a miss", func(t *testing.T) {
		result, err := pc.Or(a, b).Parse(pc.Source{Content: "bbba"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "bbb", result.Value)
	})

	t.Run("Misses when every alternative misses", func(t *testing.T) {
		result, err := pc.Or(a, b).Parse(pc.Source{Content: "ccc"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("Propagates fatal errors", func(t *testing.T) {
		result, err := pc.Or(pc.Error[string]("boom"), b).Parse(pc.Source{Content: "bbb"})
		assert.Nil(t, result)
		assert.EqualError(t, err, "boom")
	})
}

func TestZeroOrMore(t *testing.T) {
	letter := pc.Regexp(`[a-z]`)

	t.Run("Collects until the first miss", func(t *testing.T) {
		result, err := pc.ZeroOrMore(letter).Parse(pc.Source{Content: "abc123"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, []string{"a", "b", "c"}, result.Value)
		assert.Equal(t, 3, result.Source.Index)
	})

	t.Run("Succeeds with an empty list", func(t *testing.T) {
		result, err := pc.ZeroOrMore(letter).Parse(pc.Source{Content: "123"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Empty(t, result.Value)
		assert.Equal(t, 0, result.Source.Index)
	})
}

func TestBind(t *testing.T) {
	digits := pc.Regexp(`[0-9]+`)

	t.Run("Chains the continuation from the advanced cursor", func(t *testing.T) {
		// The continuation requires the very text the first parser matched
		echo := pc.Bind(digits, func(value string) pc.Parser[string] {
			return pc.Regexp(`-` + value)
		})

		result, err := echo.Parse(pc.Source{Content: "42-42"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "-42", result.Value)
		assert.Equal(t, 5, result.Source.Index)
	})

	t.Run("Misses when the first parser misses", func(t *testing.T) {
		never := pc.Bind(digits, func(string) pc.Parser[string] {
			t.Fatal("continuation must not run on a miss")
			return digits
		})

		result, err := never.Parse(pc.Source{Content: "abc"})
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestAnd(t *testing.T) {
	parser := pc.And(pc.Regexp(`a`), pc.Regexp(`b`))

	result, err := parser.Parse(pc.Source{Content: "ab"})
	require.NoError(t, err)
	require.NotNil(t, result)
	// Sequencing keeps the value of the second parser
	assert.Equal(t, "b", result.Value)
	assert.Equal(t, 2, result.Source.Index)
}

func TestMap(t *testing.T) {
	length := pc.Map(pc.Regexp(`[a-z]+`), func(value string) int { return len(value) })

	result, err := length.Parse(pc.Source{Content: "hello"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 5, result.Value)
}

func TestMaybe(t *testing.T) {
	bang := pc.Maybe(pc.Regexp(`!`))

	t.Run("Passes the value through on success", func(t *testing.T) {
		result, err := bang.Parse(pc.Source{Content: "!x"})
		require.NoError(t, err)
		require.NotNil(t, result)
		require.NotNil(t, result.Value)
		assert.Equal(t, "!", *result.Value)
		assert.Equal(t, 1, result.Source.Index)
	})

	t.Run("Succeeds with a nil sentinel on a miss", func(t *testing.T) {
		result, err := bang.Parse(pc.Source{Content: "x"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Nil(t, result.Value)
		assert.Equal(t, 0, result.Source.Index)
	})
}

func TestParseStringToCompletion(t *testing.T) {
	digits := pc.Regexp(`[0-9]+`)

	t.Run("Returns the value when the input is fully consumed", func(t *testing.T) {
		value, err := pc.ParseStringToCompletion(digits, "12345")
		require.NoError(t, err)
		assert.Equal(t, "12345", value)
	})

	t.Run("Reports a miss at index 0", func(t *testing.T) {
		_, err := pc.ParseStringToCompletion(digits, "abc")
		assert.EqualError(t, err, "Parse error at index 0")
	})

	t.Run("Reports the index where progress stopped", func(t *testing.T) {
		_, err := pc.ParseStringToCompletion(digits, "123abc")
		assert.EqualError(t, err, "Parse error at index 3")
	})
}

func TestForwardRef(t *testing.T) {
	t.Run("Fails fatally before being defined", func(t *testing.T) {
		ref := pc.NewForwardRef[string]("expression parser used before definition")

		result, err := ref.Parser().Parse(pc.Source{Content: "anything"})
		assert.Nil(t, result)
		assert.EqualError(t, err, "expression parser used before definition")
	})

	t.Run("Dispatches to the definition once bound", func(t *testing.T) {
		ref := pc.NewForwardRef[string]("used before definition")
		parser := ref.Parser()
		ref.Define(pc.Regexp(`[a-z]+`))

		result, err := parser.Parse(pc.Source{Content: "hello"})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "hello", result.Value)
	})

	t.Run("Supports recursive grammars", func(t *testing.T) {
		// nested ← '(' nested ')' | 'x' — counts the nesting depth
		ref := pc.NewForwardRef[int]("nested parser used before definition")
		nested := ref.Parser()
		ref.Define(pc.Or(
			pc.Bind(pc.And(pc.Regexp(`\(`), nested), func(depth int) pc.Parser[int] {
				return pc.And(pc.Regexp(`\)`), pc.Constant(depth+1))
			}),
			pc.Map(pc.Regexp(`x`), func(string) int { return 0 }),
		))

		depth, err := pc.ParseStringToCompletion(nested, "(((x)))")
		require.NoError(t, err)
		assert.Equal(t, 3, depth)
	})
}
