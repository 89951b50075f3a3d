package corepipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundary/internal/channel"
	"github.com/roach88/boundary/internal/engine"
	"github.com/roach88/boundary/internal/host/memhost"
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/schema"
	"github.com/roach88/boundary/internal/testutil"
)

// TestHelperProcess is the external core used by the tests below. It is
// a counter: "inc" adds one and logs to the console.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("BOUNDARY_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	data, _ := io.ReadAll(os.Stdin)
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad request:", err)
		os.Exit(2)
	}
	req := v.(ir.IRObject)
	model, _ := req["model"].(ir.IRInt)

	reply := func(js string) {
		fmt.Fprintln(os.Stdout, js)
	}

	switch req["op"] {
	case ir.IRString(OpInit):
		reply(`{"model":0,"effects":[]}`)
	case ir.IRString(OpUpdate):
		switch req["msg"] {
		case ir.IRString("inc"):
			reply(fmt.Sprintf(`{"model":%d,"effects":[{"type":"console","config":{"type":"log","config":{"message":"now %d"}}}]}`,
				model+1, model+1))
		case ir.IRString("fail"):
			reply(`{"error":"cannot handle fail"}`)
		case ir.IRString("invalid"):
			reply(`{"model":0,"effects":[{"type":"dom","config":{"type":"focusElement","config":{}}}]}`)
		case ir.IRString("crash"):
			fmt.Fprintln(os.Stderr, "core crashed")
			os.Exit(3)
		case ir.IRString("slow"):
			time.Sleep(5 * time.Second)
		case ir.IRString("garbage"):
			reply(`not json`)
		case ir.IRString("twice"):
			reply(`{"model":1}`)
			reply(`{"model":2}`)
		default:
			reply(fmt.Sprintf(`{"model":%d}`, model))
		}
	case ir.IRString(OpUpdateFromHost):
		msg := req["msg"].(ir.IRObject)
		out, _ := ir.MarshalIRValue(ir.IRObject{"model": msg["data"], "effects": ir.IRArray{}})
		reply(string(out))
	case ir.IRString(OpSubscriptions):
		if model >= 2 {
			reply(`{"subscriptions":[]}`)
			return
		}
		reply(`{"subscriptions":[{"type":"interval","config":{"id":"tick","duration":1000,"msg":{"type":"pure","config":"inc"}}}]}`)
	case ir.IRString(OpView):
		reply(fmt.Sprintf(`{"markup":"<p>%d</p>"}`, model))
	default:
		fmt.Fprintln(os.Stderr, "unknown op")
		os.Exit(2)
	}
}

func helperCore(t *testing.T, opts ...Option) *Command {
	t.Helper()
	opts = append([]Option{WithEnv("BOUNDARY_WANT_HELPER_PROCESS=1")}, opts...)
	return New(os.Args[0], []string{"-test.run=TestHelperProcess", "--"}, opts...)
}

func TestCommandInitAndUpdate(t *testing.T) {
	c := helperCore(t)
	ctx := context.Background()

	out, err := c.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(0), out.Model)
	assert.Empty(t, out.Effects)

	out, err = c.Update(ctx, ir.IRString("inc"), out.Model)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(1), out.Model)
	require.Len(t, out.Effects, 1)
	assert.Equal(t, ir.ConsoleLog{Message: "now 1"}, out.Effects[0].Op)
}

func TestCommandMissingEffectsDefaultsToEmpty(t *testing.T) {
	out, err := helperCore(t).Update(context.Background(), ir.IRString("noop"), ir.IRInt(4))
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(4), out.Model)
	assert.Empty(t, out.Effects)
}

func TestCommandUpdateFromHost(t *testing.T) {
	out, err := helperCore(t).UpdateFromHost(context.Background(),
		engine.HostMsg{Type: "reset", Data: ir.IRInt(9)}, ir.IRInt(1))
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(9), out.Model)
}

func TestCommandSubscriptionsAndView(t *testing.T) {
	c := helperCore(t)
	ctx := context.Background()

	subs, err := c.Subscriptions(ctx, ir.IRInt(0))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "tick", subs[0].ID)
	assert.Equal(t, int64(1000), subs[0].Interval.DurationMS)

	subs, err = c.Subscriptions(ctx, ir.IRInt(2))
	require.NoError(t, err)
	assert.Empty(t, subs)

	markup, err := c.View(ctx, ir.IRInt(3))
	require.NoError(t, err)
	assert.Equal(t, "<p>3</p>", markup)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		msg     string
		wantErr string
	}{
		{"fail", "core update: cannot handle fail"},
		{"crash", "core update failed: core crashed"},
		{"garbage", "core update returned invalid json"},
		{"twice", "core update returned invalid json"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			_, err := helperCore(t).Update(context.Background(), ir.IRString(tt.msg), ir.IRInt(0))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCommandTimeout(t *testing.T) {
	c := helperCore(t, WithTimeout(200*time.Millisecond))

	_, err := c.Update(context.Background(), ir.IRString("slow"), ir.IRInt(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestCommandSchemaValidation(t *testing.T) {
	v, err := schema.New()
	require.NoError(t, err)

	// Without a validator the malformed effect only fails at decode time.
	_, err = helperCore(t).Update(context.Background(), ir.IRString("invalid"), ir.IRInt(0))
	require.Error(t, err)
	var outErr *OutputError
	assert.NotErrorAs(t, err, &outErr)

	_, err = helperCore(t, WithValidator(v)).Update(context.Background(), ir.IRString("invalid"), ir.IRInt(0))
	require.ErrorAs(t, err, &outErr)
	assert.Equal(t, OpUpdate, outErr.Op)
	assert.NotEmpty(t, outErr.Errors)
	assert.Equal(t, schema.ErrSchemaViolation, outErr.Errors[0].Code)
}

func TestSplit(t *testing.T) {
	path, args, err := Split("  node core.js --fast ")
	require.NoError(t, err)
	assert.Equal(t, "node", path)
	assert.Equal(t, []string{"core.js", "--fast"}, args)

	_, _, err = Split("   ")
	assert.Error(t, err)
}

func TestCommandDrivesEngine(t *testing.T) {
	h, err := memhost.New(memhost.Options{})
	require.NoError(t, err)

	e := engine.New(engine.Config{
		Core:     helperCore(t),
		Host:     h.Capabilities(),
		Renderer: h,
		IDs:      testutil.NewSequentialIDGenerator("c"),
	})
	t.Cleanup(e.Close)
	ctx := context.Background()

	e.Init()
	require.NoError(t, e.Drain(ctx))
	assert.Equal(t, []string{"tick"}, e.Subscriptions())

	e.Deliver(channel.Pure(ir.IRString("inc")))
	require.NoError(t, e.Drain(ctx))
	h.Advance(time.Second)
	require.NoError(t, e.Drain(ctx))

	assert.Equal(t, ir.IRInt(2), e.Model())
	assert.Equal(t, []string{"now 1", "now 2"}, h.Console.Messages())
	assert.Equal(t, "<p>2</p>", h.Document.Body())
	assert.Empty(t, e.Subscriptions())
}
