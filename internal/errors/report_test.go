package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmlet/wasmlet/internal/ast"
)

func TestWrapReportRoundTrips(t *testing.T) {
	span := ast.Span{Start: ast.Pos{File: "a.wl", Line: 3, Column: 5}}
	r := New(TC001, span, "expected %s, got %s", "Int", "String")
	err := WrapReport(r)
	require.Error(t, err)

	got, ok := AsReport(err)
	require.True(t, ok)
	assert.Equal(t, TC001, got.Code)
	assert.Equal(t, "typecheck", got.Phase)
	assert.Equal(t, "expected Int, got String", got.Message)
}

func TestWrapReportNil(t *testing.T) {
	assert.Nil(t, WrapReport(nil))
}

func TestReportWithData(t *testing.T) {
	r := New(TC007, ast.Span{}, "missing fields").WithData("missing", []string{"x", "y"})
	assert.Equal(t, []string{"x", "y"}, r.Data["missing"])
}

func TestSinkOrdersBySpan(t *testing.T) {
	s := NewSink()
	s.Add(New(PAR001, ast.Span{Start: ast.Pos{File: "a.wl", Line: 10, Column: 1}}, "second"))
	s.Add(New(PAR001, ast.Span{Start: ast.Pos{File: "a.wl", Line: 2, Column: 1}}, "first"))

	require.True(t, s.HasErrors())
	reports := s.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, "first", reports[0].Message)
	assert.Equal(t, "second", reports[1].Message)
}

func TestSinkEmptyHasNoErrors(t *testing.T) {
	s := NewSink()
	assert.False(t, s.HasErrors())
	assert.Nil(t, s.Err())
	s.Add(nil)
	assert.False(t, s.HasErrors())
}
