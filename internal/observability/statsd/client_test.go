package statsd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenUDP(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func readLine(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestClient_EmitsLines(t *testing.T) {
	pc := listenUDP(t)

	c, err := NewClient(context.Background(), Config{
		Address: pc.LocalAddr().String(),
		Prefix:  ".gameup.",
		Tags:    map[string]string{"env": "test", " ": "dropped"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Count("guard.navigation", 1, map[string]string{"state": "denied", "role": "student"})
	assert.Equal(t, "gameup.guard.navigation:1|c|#env:test,role:student,state:denied", readLine(t, pc))

	c.Timing("guard/resolve", 1500*time.Microsecond, map[string]string{"env": "override"})
	assert.Equal(t, "gameup.guard_resolve:1.5|ms|#env:override", readLine(t, pc))
}

func TestNewClient_EmptyAddress(t *testing.T) {
	c, err := NewClient(context.Background(), Config{Address: "  "})
	require.NoError(t, err)
	assert.Nil(t, c)

	// A nil client is a valid no-op sink.
	c.Count("x", 1, nil)
	c.Timing("x", time.Second, nil)
	assert.NoError(t, c.Close())
}

func TestNewClient_DialError(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	pc := listenUDP(t)
	c, err := NewClient(context.Background(), Config{Address: pc.LocalAddr().String()})
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	c.Count("after.close", 1, nil)
}

func TestMetricName(t *testing.T) {
	tests := map[string]string{
		" guard/outcome ": "guard_outcome",
		"..a.b..":         "a.b",
		"x|y:z":           "x_y_z",
	}
	for in, want := range tests {
		assert.Equal(t, want, metricName(in), "input %q", in)
	}
}

func TestFormatLine(t *testing.T) {
	assert.Equal(t, "", formatLine("", "1", "c", nil, nil))
	assert.Equal(t, "a:1|c", formatLine("a", "1", "c", nil, nil))
	assert.Equal(t, "a:2|c|#k:v", formatLine("a", "2", "c", nil, map[string]string{" k ": " v ", "": "x"}))
}
