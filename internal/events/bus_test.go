package events

import (
	"context"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(context.Background())
	defer bus.Close()

	// 订阅主题
	ch, err := bus.Subscribe(TopicDeviceOnline)
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	// 发布事件
	bus.Publish(TopicDeviceOnline, "dev-1", map[string]interface{}{
		"pass":      "secret",
		"device_id": "dev-1",
	})

	select {
	case ev := <-ch:
		if ev.Topic != TopicDeviceOnline {
			t.Errorf("expected topic %s, got %s", TopicDeviceOnline, ev.Topic)
		}
		if ev.DeviceID != "dev-1" {
			t.Errorf("expected deviceID dev-1, got %s", ev.DeviceID)
		}
		// 敏感字段在进入总线前脱敏
		if ev.Fields["pass"] == "secret" {
			t.Error("pass leaked through the event bus")
		}
		if ev.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_NoSubscriberIsNoop(t *testing.T) {
	bus := NewBus(context.Background())
	defer bus.Close()

	// 无订阅者时发布不阻塞不报错
	bus.Publish(TopicDeviceHeartbeat, "dev-1", nil)
}

func TestBus_CloseDrainsSubscribers(t *testing.T) {
	bus := NewBus(context.Background())

	ch, err := bus.Subscribe(TopicDeviceOffline)
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	bus.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("subscriber channel not closed")
	}

	// 关闭后的操作是安全的空操作/报错
	bus.Publish(TopicDeviceOffline, "dev-1", nil)
	if _, err := bus.Subscribe(TopicDeviceOffline); err == nil {
		t.Error("expected error subscribing to closed bus")
	}
}

func TestBus_FullSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewBus(context.Background())
	defer bus.Close()

	_, err := bus.Subscribe(TopicDeviceHeartbeat)
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}

	done := make(chan struct{})
	go func() {
		// 订阅者不取走事件，发布方也不能被卡住
		for i := 0; i < 200; i++ {
			bus.Publish(TopicDeviceHeartbeat, "dev-1", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on full subscriber")
	}
}
