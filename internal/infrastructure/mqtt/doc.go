// Package mqtt wraps paho.mqtt.golang for the doorbell core.
//
// The broker carries two kinds of traffic on LAN installs:
//
//	doorbell/{doorbellId}/events/{timestamp}  event records published by doorbells
//	doorbell/push/{token}                     notifications for companion apps
//
// plus the retained core status on doorbell/system/status, which the broker
// flips to offline through the Last Will when the core dies.
//
// The client reconnects automatically and restores its subscriptions.
// Handlers run on paho goroutines with panic recovery; a handler error is
// logged and does not affect acknowledgement.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllDoorbellEvents(), 1, handler)
package mqtt
