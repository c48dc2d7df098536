package web

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// receive waits for one event on ch and decodes it.
func receive(t *testing.T, ch <-chan string) (StatusEvent, string) {
	t.Helper()
	select {
	case msg := <-ch:
		var evt StatusEvent
		if err := json.Unmarshal([]byte(msg), &evt); err != nil {
			t.Fatalf("unmarshal %q: %v", msg, err)
		}
		return evt, msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
	return StatusEvent{}, ""
}

func TestBroadcaster_Events(t *testing.T) {
	tracked := PoseEvent{
		Frame: 3, State: "TRACKING",
		Position: [3]float64{0.1, 0.2, -0.5}, Label: "XYZ: [0.100 0.200 -0.500]",
		RMSE: 0.2, Quality: "excellent",
	}
	cases := []struct {
		name      string
		send      func(b *StatusBroadcaster)
		wantLevel string
		wantMsg   string
		wantPose  *PoseEvent
		absent    []string // JSON keys that must be omitted
	}{
		{
			name:      "broadcast",
			send:      func(b *StatusBroadcaster) { b.Broadcast("error", "hello") },
			wantLevel: "error",
			wantMsg:   "hello",
			absent:    []string{`"pose"`},
		},
		{
			name:      "broadcast_msg",
			send:      func(b *StatusBroadcaster) { b.BroadcastMsg("convenience") },
			wantLevel: "info",
			wantMsg:   "convenience",
		},
		{
			name:      "writer_trims",
			send:      func(b *StatusBroadcaster) { BroadcastWriter(b).Write([]byte("  trimmed message  \n")) },
			wantLevel: "info",
			wantMsg:   "trimmed message",
		},
		{
			name:      "pose_tracking",
			send:      func(b *StatusBroadcaster) { b.BroadcastPose(tracked) },
			wantLevel: "pose",
			wantMsg:   "TRACKING",
			wantPose:  &tracked,
		},
		{
			name:      "pose_no_target",
			send:      func(b *StatusBroadcaster) { b.BroadcastPose(PoseEvent{Frame: 4, State: "NO_TARGET"}) },
			wantLevel: "pose",
			wantMsg:   "NO_TARGET",
			wantPose:  &PoseEvent{Frame: 4, State: "NO_TARGET"},
			absent:    []string{`"label"`, `"rmse_px"`, `"quality"`},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewStatusBroadcaster()
			ch, unsub := b.Subscribe()
			defer unsub()

			tc.send(b)
			evt, raw := receive(t, ch)

			if evt.Level != tc.wantLevel {
				t.Errorf("level = %q, want %q", evt.Level, tc.wantLevel)
			}
			if evt.Msg != tc.wantMsg {
				t.Errorf("msg = %q, want %q", evt.Msg, tc.wantMsg)
			}
			if evt.Time == "" {
				t.Error("event should have a timestamp")
			}
			switch {
			case tc.wantPose == nil && evt.Pose != nil:
				t.Errorf("unexpected pose %+v", evt.Pose)
			case tc.wantPose != nil && (evt.Pose == nil || *evt.Pose != *tc.wantPose):
				t.Errorf("pose = %+v, want %+v", evt.Pose, tc.wantPose)
			}
			for _, key := range tc.absent {
				if strings.Contains(raw, key) {
					t.Errorf("payload %s should omit %s", raw, key)
				}
			}
		})
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewStatusBroadcaster()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.BroadcastPose(PoseEvent{Frame: 1, State: "TRACKING"})

	for i, ch := range []<-chan string{ch1, ch2} {
		evt, _ := receive(t, ch)
		if evt.Pose == nil || evt.Pose.Frame != 1 {
			t.Errorf("subscriber %d: pose = %+v", i, evt.Pose)
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}

	// Broadcasting after unsubscribe should not panic
	b.Broadcast("info", "after unsub")
	b.BroadcastPose(PoseEvent{State: "NO_TARGET"})
}

func TestBroadcaster_FullChannelDropsMessage(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	// Fill the channel buffer (64 messages) with a frame stream.
	for i := 0; i < 64; i++ {
		b.BroadcastPose(PoseEvent{Frame: i, State: "TRACKING"})
	}

	// Neither kind of event may block once the buffer is full.
	b.BroadcastPose(PoseEvent{Frame: 64, State: "TRACKING"})
	b.Broadcast("info", "overflow")

	count := 0
	for {
		select {
		case msg := <-ch:
			if strings.Contains(msg, "overflow") || strings.Contains(msg, `"frame":64`) {
				t.Errorf("overflow message was delivered: %s", msg)
			}
			count++
		default:
			if count != 64 {
				t.Errorf("expected 64 buffered messages, got %d", count)
			}
			return
		}
	}
}

func TestBroadcastWriter_EmptyWriteIgnored(t *testing.T) {
	b := NewStatusBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	w := BroadcastWriter(b)
	n, err := w.Write([]byte("   \n"))
	if err != nil || n != 4 {
		t.Errorf("Write = %d, %v; want 4, nil", n, err)
	}

	select {
	case <-ch:
		t.Error("expected no message for whitespace-only write")
	case <-time.After(50 * time.Millisecond):
		// expected: no message
	}
}
