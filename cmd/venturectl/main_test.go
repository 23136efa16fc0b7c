package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	action string
	id     string
	ok     bool
}

type fakeOperator struct {
	calls []call
	sent  int
	err   error
}

func (f *fakeOperator) record(action, id string, ok bool) error {
	f.calls = append(f.calls, call{action, id, ok})
	return f.err
}

func (f *fakeOperator) VerifyListing(_ context.Context, id string, ok bool) error {
	return f.record("verify-listing", id, ok)
}

func (f *fakeOperator) ApproveKYC(_ context.Context, id string, ok bool) error {
	return f.record("approve-kyc", id, ok)
}

func (f *fakeOperator) ApproveInvestor(_ context.Context, id string, ok bool) error {
	return f.record("approve-investor", id, ok)
}

func (f *fakeOperator) ApproveInvestee(_ context.Context, id string, ok bool) error {
	return f.record("approve-investee", id, ok)
}

func (f *fakeOperator) SweepExpiring(context.Context) (int, error) {
	return f.sent, f.err
}

// run executes args and reports the output and whether the backend was
// released.
func run(t *testing.T, op *fakeOperator, args ...string) (string, bool, error) {
	t.Helper()
	closed := false
	cmd := newRootCmd(func(context.Context, string) (operator, func(), error) {
		return op, func() { closed = true }, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), closed, err
}

func TestDecisionCommands(t *testing.T) {
	tests := []struct {
		args []string
		want call
		out  string
	}{
		{[]string{"verify-listing", "user1"}, call{"verify-listing", "user1", true}, "user1: verified=true\n"},
		{[]string{"verify-listing", "user1", "--revoke"}, call{"verify-listing", "user1", false}, "user1: verified=false\n"},
		{[]string{"approve-kyc", "u2"}, call{"approve-kyc", "u2", true}, "u2: approved=true\n"},
		{[]string{"approve-investor", "u3"}, call{"approve-investor", "u3", true}, "u3: approved=true\n"},
		{[]string{"approve-investee", "u4", "--revoke"}, call{"approve-investee", "u4", false}, "u4: approved=false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			op := &fakeOperator{}
			out, closed, err := run(t, op, tt.args...)

			require.NoError(t, err)
			assert.True(t, closed)
			assert.Equal(t, []call{tt.want}, op.calls)
			assert.Equal(t, tt.out, out)
		})
	}
}

func TestDecisionRequiresOneArgument(t *testing.T) {
	op := &fakeOperator{}
	_, closed, err := run(t, op, "approve-kyc")

	assert.Error(t, err)
	assert.Empty(t, op.calls)
	assert.False(t, closed, "argument errors must not connect")
}

func TestSweepReminders(t *testing.T) {
	op := &fakeOperator{sent: 3}
	out, _, err := run(t, op, "sweep-reminders")

	require.NoError(t, err)
	assert.Equal(t, "reminders sent: 3\n", out)
}

func TestOperatorErrorIsReturned(t *testing.T) {
	op := &fakeOperator{err: errors.New("listing not found")}
	_, closed, err := run(t, op, "verify-listing", "missing")

	assert.EqualError(t, err, "listing not found")
	assert.True(t, closed)
}

func TestOpenFailure(t *testing.T) {
	cmd := newRootCmd(func(context.Context, string) (operator, func(), error) {
		return nil, nil, errors.New("no route to mongodb")
	})
	cmd.SetArgs([]string{"sweep-reminders"})

	err := cmd.Execute()
	assert.EqualError(t, err, "connecting: no route to mongodb")
}
