// Package mqtt provides MQTT client connectivity for IoT Connect Core.
//
// The core does not broker messages itself. It connects to the deployment's
// broker as an ordinary client in order to:
//   - listen for device presence on <prefix>/presence/+ (see package presence)
//   - announce its own availability on <prefix>/system/status, with a
//     Last Will so the broker reports an unexpected disconnect
//
// The client reconnects automatically with backoff and restores its
// subscriptions after every reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.Topics{Prefix: cfg.Presence.TopicPrefix})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllDevicePresence(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
package mqtt
